package service

import (
	"fmt"
	"time"

	"repairshop-service/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProfitService derives profit figures from delivery records. Nothing here is
// a second source of truth: every number is computed from the expense fields
// attached at delivery time plus the customer payment ledger.
type ProfitService struct {
	db *gorm.DB
}

func NewProfitService(db *gorm.DB) *ProfitService {
	return &ProfitService{db: db}
}

// JobProfit computes a single job's profit from its delivery record. The
// second return reports whether expenses are still pending; a pending job is
// surfaced separately, never assumed zero-profit.
func JobProfit(d *model.Delivery) (float64, bool) {
	if d == nil {
		return 0, true
	}
	pending := d.ExpenseParts == nil && d.ExpenseLabor == nil
	profit := decimal.NewFromFloat(d.AmountReceived)
	if d.ExpenseParts != nil {
		profit = profit.Sub(decimal.NewFromFloat(*d.ExpenseParts))
	}
	if d.ExpenseLabor != nil {
		profit = profit.Sub(decimal.NewFromFloat(*d.ExpenseLabor))
	}
	return profit.InexactFloat64(), pending
}

// ProfitMargin returns profit as a percentage of received, rounded to two
// decimals, or 0 when nothing was received.
func ProfitMargin(totalProfit, totalReceived float64) float64 {
	if totalReceived <= 0 {
		return 0
	}
	margin := decimal.NewFromFloat(totalProfit).
		Div(decimal.NewFromFloat(totalReceived)).
		Mul(decimal.NewFromInt(100)).
		Round(2)
	return margin.InexactFloat64()
}

// periodStart maps a report period to its UTC window start.
func periodStart(period string, now time.Time) (time.Time, error) {
	now = now.UTC()
	switch period {
	case "day":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	case "week":
		return now.AddDate(0, 0, -7), nil
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
	default:
		return time.Time{}, fmt.Errorf("%w: unknown period %q", ErrValidation, period)
	}
}

// deliveredJobs loads the tenant's delivered/closed jobs whose delivery falls
// at or after start. Zero start means no window.
func (s *ProfitService) deliveredJobs(tenantID uint, start time.Time) ([]model.Job, error) {
	var jobs []model.Job
	err := s.db.Where("tenant_id = ? AND status IN ?", tenantID,
		[]string{model.StatusDelivered, model.StatusClosed}).
		Order("created_at desc").Find(&jobs).Error
	if err != nil {
		return nil, err
	}

	filtered := jobs[:0]
	for _, job := range jobs {
		if job.Delivery == nil {
			continue
		}
		if !start.IsZero() && job.Delivery.DeliveredAt.Before(start) {
			continue
		}
		filtered = append(filtered, job)
	}
	return filtered, nil
}

// ProfitSummary aggregates a tenant's profit for a report window.
type ProfitSummary struct {
	TotalReceived      float64 `json:"total_received"`
	TotalExpense       float64 `json:"total_expense"`
	TotalExpenseParts  float64 `json:"total_expense_parts"`
	TotalExpenseLabor  float64 `json:"total_expense_labor"`
	TotalProfit        float64 `json:"total_profit"`
	ProfitMargin       float64 `json:"profit_margin"`
	TotalJobs          int     `json:"total_jobs"`
	JobsWithExpense    int     `json:"jobs_with_expense"`
	JobsPendingExpense int     `json:"jobs_pending_expense"`
}

// Summary computes the profit summary for period in {day, week, month, year}.
func (s *ProfitService) Summary(tenantID uint, period string, now time.Time) (*ProfitSummary, error) {
	start, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}
	jobs, err := s.deliveredJobs(tenantID, start)
	if err != nil {
		return nil, err
	}

	received, parts, labor, profit := decimal.Zero, decimal.Zero, decimal.Zero, decimal.Zero
	summary := &ProfitSummary{TotalJobs: len(jobs)}
	for _, job := range jobs {
		d := job.Delivery
		received = received.Add(decimal.NewFromFloat(d.AmountReceived))

		jobProfit, pending := JobProfit(d)
		if pending {
			summary.JobsPendingExpense++
			continue
		}
		summary.JobsWithExpense++
		profit = profit.Add(decimal.NewFromFloat(jobProfit))
		if d.ExpenseParts != nil {
			parts = parts.Add(decimal.NewFromFloat(*d.ExpenseParts))
		}
		if d.ExpenseLabor != nil {
			labor = labor.Add(decimal.NewFromFloat(*d.ExpenseLabor))
		}
	}

	summary.TotalReceived = received.InexactFloat64()
	summary.TotalExpenseParts = parts.InexactFloat64()
	summary.TotalExpenseLabor = labor.InexactFloat64()
	summary.TotalExpense = parts.Add(labor).InexactFloat64()
	summary.TotalProfit = profit.InexactFloat64()
	summary.ProfitMargin = ProfitMargin(summary.TotalProfit, summary.TotalReceived)
	return summary, nil
}

// JobProfitRow is one job in the job-wise report.
type JobProfitRow struct {
	JobID          uint               `json:"job_id"`
	JobNumber      string             `json:"job_number"`
	Customer       model.CustomerInfo `json:"customer"`
	Device         model.DeviceInfo   `json:"device"`
	Delivery       *model.Delivery    `json:"delivery"`
	Profit         float64            `json:"profit"`
	ExpensePending bool               `json:"expense_pending"`
}

// JobWiseReport pairs per-job rows with window totals.
type JobWiseReport struct {
	Jobs    []JobProfitRow `json:"jobs"`
	Summary ProfitSummary  `json:"summary"`
}

// JobWise returns per-job profit for the period, newest first.
func (s *ProfitService) JobWise(tenantID uint, period string, now time.Time) (*JobWiseReport, error) {
	summary, err := s.Summary(tenantID, period, now)
	if err != nil {
		return nil, err
	}
	start, _ := periodStart(period, now)
	jobs, err := s.deliveredJobs(tenantID, start)
	if err != nil {
		return nil, err
	}

	report := &JobWiseReport{Summary: *summary, Jobs: make([]JobProfitRow, 0, len(jobs))}
	for _, job := range jobs {
		profit, pending := JobProfit(job.Delivery)
		if pending {
			profit = 0
		}
		report.Jobs = append(report.Jobs, JobProfitRow{
			JobID:          job.ID,
			JobNumber:      job.JobNumber,
			Customer:       job.Customer,
			Device:         job.Device,
			Delivery:       job.Delivery,
			Profit:         profit,
			ExpensePending: pending,
		})
	}
	return report, nil
}

// PartyProfit is one customer in the party-wise report.
type PartyProfit struct {
	CustomerName   string  `json:"customer_name"`
	CustomerMobile string  `json:"customer_mobile"`
	TotalJobs      int     `json:"total_jobs"`
	TotalReceived  float64 `json:"total_received"`
	TotalProfit    float64 `json:"total_profit"`
	PendingExpense int     `json:"pending_expense"`
}

// PartyWise sums per-job profit per customer across the window.
func (s *ProfitService) PartyWise(tenantID uint, period string, now time.Time) ([]PartyProfit, error) {
	start, err := periodStart(period, now)
	if err != nil {
		return nil, err
	}
	jobs, err := s.deliveredJobs(tenantID, start)
	if err != nil {
		return nil, err
	}

	byMobile := make(map[string]*PartyProfit)
	order := make([]string, 0)
	for _, job := range jobs {
		mobile := job.Customer.Mobile
		party, ok := byMobile[mobile]
		if !ok {
			party = &PartyProfit{CustomerName: job.Customer.Name, CustomerMobile: mobile}
			byMobile[mobile] = party
			order = append(order, mobile)
		}
		party.TotalJobs++
		party.TotalReceived += job.Delivery.AmountReceived

		profit, pending := JobProfit(job.Delivery)
		if pending {
			party.PendingExpense++
			continue
		}
		party.TotalProfit += profit
	}

	result := make([]PartyProfit, 0, len(order))
	for _, mobile := range order {
		result = append(result, *byMobile[mobile])
	}
	return result, nil
}

// PendingExpenses lists delivered/closed jobs still missing expense entries.
func (s *ProfitService) PendingExpenses(tenantID uint) ([]model.Job, error) {
	jobs, err := s.deliveredJobs(tenantID, time.Time{})
	if err != nil {
		return nil, err
	}
	pending := jobs[:0]
	for _, job := range jobs {
		if _, isPending := JobProfit(job.Delivery); isPending {
			pending = append(pending, job)
		}
	}
	return pending, nil
}

// BulkExpenseEntry sets expenses on one delivered job.
type BulkExpenseEntry struct {
	JobID        uint    `json:"job_id"`
	ExpenseParts float64 `json:"expense_parts"`
	ExpenseLabor float64 `json:"expense_labor"`
}

// BulkExpense fills in expenses on many delivered jobs at once. Jobs without
// a delivery record are skipped. Returns the number of jobs updated.
func (s *ProfitService) BulkExpense(tenantID uint, entries []BulkExpenseEntry) (int, error) {
	updated := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, entry := range entries {
			job, err := getJobTx(tx, tenantID, entry.JobID)
			if err != nil || job.Delivery == nil {
				continue
			}
			parts, labor := entry.ExpenseParts, entry.ExpenseLabor
			job.Delivery.ExpenseParts = &parts
			job.Delivery.ExpenseLabor = &labor
			if err := tx.Save(job).Error; err != nil {
				return err
			}
			updated++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// PaymentInput records a direct ledger payment against a customer.
type PaymentInput struct {
	CustomerMobile string  `json:"customer_mobile"`
	CustomerName   string  `json:"customer_name"`
	Amount         float64 `json:"amount"`
	PaymentMode    string  `json:"payment_mode"`
	Notes          string  `json:"notes"`
}

// RecordPayment appends an immutable payment fact to the customer ledger.
func (s *ProfitService) RecordPayment(actor Actor, input PaymentInput) (*model.CustomerPayment, error) {
	if input.CustomerMobile == "" {
		return nil, fmt.Errorf("%w: customer mobile is required", ErrValidation)
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: payment amount must be positive", ErrValidation)
	}
	payment := model.CustomerPayment{
		TenantID:       actor.TenantID,
		CustomerMobile: input.CustomerMobile,
		CustomerName:   input.CustomerName,
		Amount:         input.Amount,
		PaymentMode:    input.PaymentMode,
		Notes:          input.Notes,
		RecordedBy:     actor.UserID,
	}
	if err := s.db.Create(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

// CustomerLedger is a customer's billed/received/outstanding position.
type CustomerLedger struct {
	CustomerMobile string                  `json:"customer_mobile"`
	CustomerName   string                  `json:"customer_name"`
	TotalBilled    float64                 `json:"total_billed"`
	TotalReceived  float64                 `json:"total_received"`
	Outstanding    float64                 `json:"outstanding"`
	Payments       []model.CustomerPayment `json:"payments"`
}

// Ledger computes a customer's outstanding balance: billed totals come from
// delivered/closed jobs' final amounts, received totals from delivery
// receipts plus direct ledger payments. Outstanding never goes below zero.
func (s *ProfitService) Ledger(tenantID uint, customerMobile string) (*CustomerLedger, error) {
	jobs, err := s.deliveredJobs(tenantID, time.Time{})
	if err != nil {
		return nil, err
	}

	billed, received := decimal.Zero, decimal.Zero
	ledger := &CustomerLedger{CustomerMobile: customerMobile}
	for _, job := range jobs {
		if job.Customer.Mobile != customerMobile {
			continue
		}
		if ledger.CustomerName == "" {
			ledger.CustomerName = job.Customer.Name
		}
		billed = billed.Add(decimal.NewFromFloat(billedAmount(&job)))
		received = received.Add(decimal.NewFromFloat(job.Delivery.AmountReceived))
	}

	var payments []model.CustomerPayment
	err = s.db.Where("tenant_id = ? AND customer_mobile = ?", tenantID, customerMobile).
		Order("created_at desc").Find(&payments).Error
	if err != nil {
		return nil, err
	}
	for _, payment := range payments {
		received = received.Add(decimal.NewFromFloat(payment.Amount))
	}

	ledger.Payments = payments
	ledger.TotalBilled = billed.InexactFloat64()
	ledger.TotalReceived = received.InexactFloat64()
	outstanding := billed.Sub(received)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	ledger.Outstanding = outstanding.InexactFloat64()
	return ledger, nil
}

// billedAmount is what the shop invoiced for a job: the repair's final amount
// when a repair was recorded, otherwise what was collected at delivery.
func billedAmount(job *model.Job) float64 {
	if job.Repair != nil {
		return job.Repair.FinalAmount
	}
	if job.Delivery != nil {
		return job.Delivery.AmountReceived
	}
	return 0
}
