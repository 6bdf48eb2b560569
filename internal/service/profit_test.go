package service

import (
	"errors"
	"testing"
	"time"

	"repairshop-service/internal/model"
)

func newProfitFixture(t *testing.T) (*JobService, *ProfitService, Actor) {
	t.Helper()
	db := newTestDB(t)
	registry := NewPlanRegistry(db)
	_, actor := newTestTenant(t, db, "pro")
	return NewJobService(db, registry), NewProfitService(db), actor
}

func deliverJob(t *testing.T, jobs *JobService, actor Actor, customer model.CustomerInfo, input DeliveryInput) *model.Job {
	t.Helper()
	job, err := jobs.Create(actor, CreateJobInput{
		Customer:           customer,
		Device:             model.DeviceInfo{Brand: "Samsung", Model: "A52"},
		ProblemDescription: "not charging",
	})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	job, err = jobs.Deliver(actor, job.ID, input)
	if err != nil {
		t.Fatalf("deliver job: %v", err)
	}
	return job
}

func TestJobProfit(t *testing.T) {
	profit, pending := JobProfit(&model.Delivery{
		AmountReceived: 1000, ExpenseParts: floatPtr(300), ExpenseLabor: floatPtr(200),
	})
	if pending {
		t.Error("both expenses set should not be pending")
	}
	if profit != 500 {
		t.Errorf("profit = %v, want 500", profit)
	}

	profit, pending = JobProfit(&model.Delivery{AmountReceived: 1000})
	if !pending {
		t.Error("no expenses should be pending")
	}

	// One expense set is enough to count the job
	profit, pending = JobProfit(&model.Delivery{AmountReceived: 1000, ExpenseLabor: floatPtr(200)})
	if pending {
		t.Error("single expense should not be pending")
	}
	if profit != 800 {
		t.Errorf("profit = %v, want 800", profit)
	}

	if _, pending = JobProfit(nil); !pending {
		t.Error("nil delivery is pending")
	}
}

func TestProfitMargin(t *testing.T) {
	if margin := ProfitMargin(500, 1000); margin != 50 {
		t.Errorf("margin = %v, want 50", margin)
	}
	if margin := ProfitMargin(1, 3); margin != 33.33 {
		t.Errorf("margin = %v, want 33.33", margin)
	}
	if margin := ProfitMargin(500, 0); margin != 0 {
		t.Errorf("zero received margin = %v, want 0", margin)
	}
	if margin := ProfitMargin(-100, 1000); margin != -10 {
		t.Errorf("loss margin = %v, want -10", margin)
	}
}

func TestProfitSummary(t *testing.T) {
	jobs, profit, actor := newProfitFixture(t)
	ravi := model.CustomerInfo{Name: "Ravi", Mobile: "9000000001"}

	deliverJob(t, jobs, actor, ravi, DeliveryInput{
		AmountReceived: 1000, ExpenseParts: floatPtr(300), ExpenseLabor: floatPtr(200),
	})
	deliverJob(t, jobs, actor, ravi, DeliveryInput{
		AmountReceived: 2000, ExpenseParts: floatPtr(500), ExpenseLabor: floatPtr(0),
	})
	deliverJob(t, jobs, actor, ravi, DeliveryInput{AmountReceived: 800})

	summary, err := profit.Summary(actor.TenantID, "month", time.Now())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalJobs != 3 || summary.JobsWithExpense != 2 || summary.JobsPendingExpense != 1 {
		t.Errorf("job counts = %d/%d/%d", summary.TotalJobs, summary.JobsWithExpense, summary.JobsPendingExpense)
	}
	if summary.TotalReceived != 3800 {
		t.Errorf("total received = %v, want 3800", summary.TotalReceived)
	}
	if summary.TotalExpenseParts != 800 || summary.TotalExpenseLabor != 200 || summary.TotalExpense != 1000 {
		t.Errorf("expenses = %v/%v/%v", summary.TotalExpenseParts, summary.TotalExpenseLabor, summary.TotalExpense)
	}
	// Pending jobs contribute to received but not to profit
	if summary.TotalProfit != 2000 {
		t.Errorf("total profit = %v, want 2000", summary.TotalProfit)
	}
	if summary.ProfitMargin != ProfitMargin(2000, 3800) {
		t.Errorf("margin = %v", summary.ProfitMargin)
	}

	if _, err := profit.Summary(actor.TenantID, "decade", time.Now()); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown period err = %v, want ErrValidation", err)
	}
}

func TestPartyWise(t *testing.T) {
	jobs, profit, actor := newProfitFixture(t)
	ravi := model.CustomerInfo{Name: "Ravi", Mobile: "9000000001"}
	meena := model.CustomerInfo{Name: "Meena", Mobile: "9000000002"}

	deliverJob(t, jobs, actor, ravi, DeliveryInput{AmountReceived: 1000, ExpenseParts: floatPtr(400), ExpenseLabor: floatPtr(100)})
	deliverJob(t, jobs, actor, ravi, DeliveryInput{AmountReceived: 500})
	deliverJob(t, jobs, actor, meena, DeliveryInput{AmountReceived: 2000, ExpenseParts: floatPtr(0), ExpenseLabor: floatPtr(500)})

	parties, err := profit.PartyWise(actor.TenantID, "month", time.Now())
	if err != nil {
		t.Fatalf("party wise: %v", err)
	}
	if len(parties) != 2 {
		t.Fatalf("parties = %d, want 2", len(parties))
	}

	byMobile := map[string]PartyProfit{}
	for _, p := range parties {
		byMobile[p.CustomerMobile] = p
	}
	raviP := byMobile["9000000001"]
	if raviP.TotalJobs != 2 || raviP.TotalReceived != 1500 || raviP.TotalProfit != 500 || raviP.PendingExpense != 1 {
		t.Errorf("ravi = %+v", raviP)
	}
	meenaP := byMobile["9000000002"]
	if meenaP.TotalJobs != 1 || meenaP.TotalProfit != 1500 {
		t.Errorf("meena = %+v", meenaP)
	}
}

func TestPendingExpensesAndBulkExpense(t *testing.T) {
	jobs, profit, actor := newProfitFixture(t)
	ravi := model.CustomerInfo{Name: "Ravi", Mobile: "9000000001"}

	a := deliverJob(t, jobs, actor, ravi, DeliveryInput{AmountReceived: 1000})
	b := deliverJob(t, jobs, actor, ravi, DeliveryInput{AmountReceived: 2000})
	deliverJob(t, jobs, actor, ravi, DeliveryInput{AmountReceived: 500, ExpenseParts: floatPtr(100), ExpenseLabor: floatPtr(50)})

	pending, err := profit.PendingExpenses(actor.TenantID)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending jobs = %d, want 2", len(pending))
	}

	// Not-yet-delivered jobs and unknown ids are skipped, not errors
	fresh, err := jobs.Create(actor, CreateJobInput{
		Customer: ravi, ProblemDescription: "cracked back glass",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := profit.BulkExpense(actor.TenantID, []BulkExpenseEntry{
		{JobID: a.ID, ExpenseParts: 200, ExpenseLabor: 100},
		{JobID: b.ID, ExpenseParts: 600, ExpenseLabor: 0},
		{JobID: fresh.ID, ExpenseParts: 10, ExpenseLabor: 10},
		{JobID: 99999, ExpenseParts: 1, ExpenseLabor: 1},
	})
	if err != nil {
		t.Fatalf("bulk expense: %v", err)
	}
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}

	pending, err = profit.PendingExpenses(actor.TenantID)
	if err != nil {
		t.Fatalf("pending after bulk: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("pending after bulk = %d, want 0", len(pending))
	}

	summary, err := profit.Summary(actor.TenantID, "month", time.Now())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.TotalProfit != 700+1400+350 {
		t.Errorf("profit after bulk = %v, want 2450", summary.TotalProfit)
	}
}

func TestCustomerLedger(t *testing.T) {
	jobs, profit, actor := newProfitFixture(t)
	ravi := model.CustomerInfo{Name: "Ravi", Mobile: "9000000001"}

	// Repair invoiced 3000, only 1000 collected at delivery
	job, err := jobs.Create(actor, CreateJobInput{
		Customer: ravi, ProblemDescription: "water damage",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := jobs.SetRepair(actor, job.ID, RepairInput{WorkDone: "board repair", FinalAmount: 3000}); err != nil {
		t.Fatalf("repair: %v", err)
	}
	if _, err := jobs.Deliver(actor, job.ID, DeliveryInput{AmountReceived: 1000, IsCredit: true}); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	ledger, err := profit.Ledger(actor.TenantID, ravi.Mobile)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if ledger.TotalBilled != 3000 || ledger.TotalReceived != 1000 || ledger.Outstanding != 2000 {
		t.Errorf("ledger = billed %v received %v outstanding %v", ledger.TotalBilled, ledger.TotalReceived, ledger.Outstanding)
	}

	if _, err := profit.RecordPayment(actor, PaymentInput{CustomerMobile: ravi.Mobile, Amount: 1500, PaymentMode: "cash"}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	ledger, err = profit.Ledger(actor.TenantID, ravi.Mobile)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if ledger.Outstanding != 500 || len(ledger.Payments) != 1 {
		t.Errorf("ledger after payment = %+v", ledger)
	}

	// Overpayment clamps to zero
	if _, err := profit.RecordPayment(actor, PaymentInput{CustomerMobile: ravi.Mobile, Amount: 5000}); err != nil {
		t.Fatalf("payment: %v", err)
	}
	ledger, _ = profit.Ledger(actor.TenantID, ravi.Mobile)
	if ledger.Outstanding != 0 {
		t.Errorf("overpaid outstanding = %v, want 0", ledger.Outstanding)
	}

	if _, err := profit.RecordPayment(actor, PaymentInput{CustomerMobile: "", Amount: 100}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing mobile err = %v, want ErrValidation", err)
	}
	if _, err := profit.RecordPayment(actor, PaymentInput{CustomerMobile: ravi.Mobile, Amount: 0}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero amount err = %v, want ErrValidation", err)
	}
}
