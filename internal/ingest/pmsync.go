package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/models"
	"github.com/Opsightlive/opsight-live-sub001/internal/utils"
)

// apiSyncConfidence applies to every KPI pulled from the upstream PM
// API: values arrive structured, not pattern-matched.
const apiSyncConfidence = 1.0

// IntegrationStore is the slice of the store PM sync needs. *db.DB
// satisfies it.
type IntegrationStore interface {
	GetIntegration(ctx context.Context, id string) (models.PMIntegration, error)
	SetIntegrationSyncing(ctx context.Context, id string) error
	CompleteIntegrationSync(ctx context.Context, id string) error
	FailIntegrationSync(ctx context.Context, id, errMsg string) error
	InsertKPIRecord(ctx context.Context, rec models.KPIRecord) error
}

// PMSyncer pulls property, financial, and maintenance data from an
// upstream property-management API and normalizes it into KPI records.
type PMSyncer struct {
	store       IntegrationStore
	logger      *logging.Logger
	httpTimeout time.Duration
}

func NewPMSyncer(store IntegrationStore, logger *logging.Logger, httpTimeout time.Duration) *PMSyncer {
	return &PMSyncer{store: store, logger: logger, httpTimeout: httpTimeout}
}

// propertyPayload mirrors the upstream /properties response.
type propertyPayload struct {
	Name          string   `json:"name"`
	OccupancyRate *float64 `json:"occupancy_rate"`
	LeasesSigned  *float64 `json:"leases_signed"`
}

// financialPayload mirrors the upstream /financials response.
type financialPayload struct {
	PropertyName      string   `json:"property_name"`
	MonthlyRevenue    *float64 `json:"monthly_revenue"`
	OperatingExpenses *float64 `json:"operating_expenses"`
	DelinquencyRate   *float64 `json:"delinquency_rate"`
}

// maintenancePayload mirrors the upstream /maintenance response.
type maintenancePayload struct {
	PropertyName   string   `json:"property_name"`
	OpenWorkOrders *float64 `json:"open_work_orders"`
	AvgDaysToClose *float64 `json:"avg_days_to_close"`
}

// Sync runs one synchronization pass for an integration, moving its
// status along syncing -> active|error.
func (s *PMSyncer) Sync(ctx context.Context, integrationID, userID string) error {
	integ, err := s.store.GetIntegration(ctx, integrationID)
	if err != nil {
		return err
	}
	if integ.UserID != userID {
		return fmt.Errorf("integration %s does not belong to user %s", integrationID, userID)
	}

	if err := s.store.SetIntegrationSyncing(ctx, integ.ID); err != nil {
		return err
	}

	if err := s.pull(ctx, integ); err != nil {
		s.fail(ctx, integ.ID, err)
		return fmt.Errorf("sync failed for integration %s: %w", integ.ID, err)
	}

	if err := s.store.CompleteIntegrationSync(ctx, integ.ID); err != nil {
		return err
	}
	s.logger.Infof("Integration %s synced for user %s", integ.ID, userID)
	return nil
}

func (s *PMSyncer) fail(ctx context.Context, integrationID string, cause error) {
	if err := s.store.FailIntegrationSync(ctx, integrationID, cause.Error()); err != nil {
		s.logger.Errorf("Failed to record sync error for integration %s: %v", integrationID, err)
	}
}

// pull authenticates and fetches all three upstream data sets.
func (s *PMSyncer) pull(ctx context.Context, integ models.PMIntegration) error {
	conf := &oauth2.Config{
		ClientID:     integ.ClientID,
		ClientSecret: integ.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL: integ.BaseURL + "/oauth/token",
		},
	}

	// Token and API calls share one bounded-timeout client.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: s.httpTimeout})
	token, err := conf.PasswordCredentialsToken(ctx, integ.Username, integ.Password)
	if err != nil {
		return fmt.Errorf("authentication against %s failed: %w", integ.BaseURL, err)
	}
	client := conf.Client(ctx, token)

	now := time.Now()
	periodStart := now.AddDate(0, -1, 0)

	var properties []propertyPayload
	if err := s.fetch(client, integ.BaseURL+"/api/properties", &properties); err != nil {
		return err
	}
	for _, p := range properties {
		s.insert(ctx, integ.UserID, p.Name, models.KPITypeLeasing, "Occupancy Rate", p.OccupancyRate, "%", periodStart, now)
		s.insert(ctx, integ.UserID, p.Name, models.KPITypeLeasing, "Leases Signed", p.LeasesSigned, "count", periodStart, now)
	}

	var financials []financialPayload
	if err := s.fetch(client, integ.BaseURL+"/api/financials", &financials); err != nil {
		return err
	}
	for _, f := range financials {
		s.insert(ctx, integ.UserID, f.PropertyName, models.KPITypeFinancial, "Total Revenue", f.MonthlyRevenue, "$", periodStart, now)
		s.insert(ctx, integ.UserID, f.PropertyName, models.KPITypeFinancial, "Operating Expenses", f.OperatingExpenses, "$", periodStart, now)
		s.insert(ctx, integ.UserID, f.PropertyName, models.KPITypeCollections, "Delinquency Rate", f.DelinquencyRate, "%", periodStart, now)
	}

	var maintenance []maintenancePayload
	if err := s.fetch(client, integ.BaseURL+"/api/maintenance", &maintenance); err != nil {
		return err
	}
	for _, m := range maintenance {
		s.insert(ctx, integ.UserID, m.PropertyName, models.KPITypeOperations, "Open Work Orders", m.OpenWorkOrders, "count", periodStart, now)
		s.insert(ctx, integ.UserID, m.PropertyName, models.KPITypeOperations, "Avg Days To Close", m.AvgDaysToClose, "days", periodStart, now)
	}

	return nil
}

// fetch GETs a JSON collection with bounded retries on transient errors.
func (s *PMSyncer) fetch(client *http.Client, url string, out interface{}) error {
	return utils.Retry(s.logger, 3, 2*time.Second, func() error {
		resp, err := client.Get(url)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", url, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("upstream returned status %d for %s", resp.StatusCode, url)
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", url, err)
		}
		return nil
	})
}

// insert writes one normalized record; metrics absent upstream are
// skipped rather than stored as null.
func (s *PMSyncer) insert(ctx context.Context, userID, propertyName, kpiType, kpiName string, value *float64, unit string, periodStart, periodEnd time.Time) {
	if value == nil || propertyName == "" {
		return
	}
	rec := models.KPIRecord{
		UserID:               userID,
		PropertyName:         propertyName,
		KPIType:              kpiType,
		KPIName:              kpiName,
		Value:                value,
		Unit:                 unit,
		PeriodStart:          periodStart,
		PeriodEnd:            periodEnd,
		ExtractionConfidence: apiSyncConfidence,
		CreatedAt:            time.Now(),
	}
	if err := s.store.InsertKPIRecord(ctx, rec); err != nil {
		s.logger.Errorf("Failed to store %s/%s for %s: %v", kpiType, kpiName, propertyName, err)
	}
}
