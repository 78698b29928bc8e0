package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordEligibilityDecision(t *testing.T) {
	Business.EligibilityDecisions.Reset()

	RecordEligibilityDecision("check", true, "standard")
	RecordEligibilityDecision("check", true, "standard")
	RecordEligibilityDecision("create", false, "rejected")

	assert.Equal(t, float64(2), testutil.ToFloat64(Business.EligibilityDecisions.WithLabelValues("check", "approved", "standard")))
	assert.Equal(t, float64(1), testutil.ToFloat64(Business.EligibilityDecisions.WithLabelValues("create", "rejected", "rejected")))
}

func TestRecordIngestionRow(t *testing.T) {
	Business.IngestionRows.Reset()

	RecordIngestionRow("loan", "skipped")
	RecordIngestionRow("loan", "upserted")
	RecordIngestionRow("loan", "upserted")

	assert.Equal(t, float64(1), testutil.ToFloat64(Business.IngestionRows.WithLabelValues("loan", "skipped")))
	assert.Equal(t, float64(2), testutil.ToFloat64(Business.IngestionRows.WithLabelValues("loan", "upserted")))
}

func TestRecordCounters(t *testing.T) {
	before := testutil.ToFloat64(Business.LoansCreated)
	RecordLoanCreated()
	assert.Equal(t, before+1, testutil.ToFloat64(Business.LoansCreated))

	before = testutil.ToFloat64(Business.CustomersRegistered)
	RecordCustomerRegistered()
	assert.Equal(t, before+1, testutil.ToFloat64(Business.CustomersRegistered))
}

func TestRecordHistograms(t *testing.T) {
	DB.QueryDuration.Reset()
	Business.IngestionDuration.Reset()

	RecordDBQuery("FindCustomerByID", "success", 3*time.Millisecond)
	RecordIngestionRun("success", 2*time.Second)

	assert.Equal(t, 1, testutil.CollectAndCount(DB.QueryDuration))
	assert.Equal(t, 1, testutil.CollectAndCount(Business.IngestionDuration))
}
