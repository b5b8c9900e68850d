package quotecache

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-redis/redis/v8"
	redismock "github.com/go-redis/redismock/v8"

	"github.com/nomixtrade/marketsync/pkg/models"
)

type fakeCompanyService struct {
	details models.CompanyDetails
	graph   []models.GraphPoint
	err     error
	calls   int
}

func (f *fakeCompanyService) GetCompany(ctx context.Context, symbol string) (models.CompanyDetails, error) {
	f.calls++
	return f.details, f.err
}

func (f *fakeCompanyService) GetCompanyGraph(ctx context.Context, symbol string) ([]models.GraphPoint, error) {
	f.calls++
	return f.graph, f.err
}

func sampleDetails() models.CompanyDetails {
	return models.CompanyDetails{
		Profile:      models.CompanyProfile{Symbol: "ENGRO", Name: "Engro Corp", Sector: "Fertilizer", Status: "Compliant"},
		LatestMarket: models.LatestMarket{Symbol: "ENGRO", Last: 310, Open: 300},
	}
}

func TestGetCompanyCacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := &fakeCompanyService{}
	companies := NewCompanies(svc, &Client{rdb: db})

	cached, _ := json.Marshal(sampleDetails())
	mock.ExpectGet("company:ENGRO:details").SetVal(string(cached))

	got, err := companies.GetCompany(context.Background(), "ENGRO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Profile.Name != "Engro Corp" {
		t.Errorf("Profile.Name = %q; want cached value", got.Profile.Name)
	}
	if svc.calls != 0 {
		t.Errorf("backend called %d times on a cache hit; want 0", svc.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetCompanyCacheMissFillsCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := &fakeCompanyService{details: sampleDetails()}
	companies := NewCompanies(svc, &Client{rdb: db})

	data, _ := json.Marshal(sampleDetails())
	mock.ExpectGet("company:ENGRO:details").SetErr(redis.Nil)
	mock.ExpectSet("company:ENGRO:details", data, detailsTTL).SetVal("OK")

	got, err := companies.GetCompany(context.Background(), "ENGRO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Profile.Symbol != "ENGRO" || svc.calls != 1 {
		t.Errorf("miss should hit the backend exactly once, got %d calls", svc.calls)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetCompanyCacheErrorFallsThrough(t *testing.T) {
	db, mock := redismock.NewClientMock()
	svc := &fakeCompanyService{details: sampleDetails()}
	companies := NewCompanies(svc, &Client{rdb: db})

	mock.ExpectGet("company:ENGRO:details").SetErr(fmt.Errorf("connection reset"))
	// The write also fails; GetCompany must still succeed.
	data, _ := json.Marshal(sampleDetails())
	mock.ExpectSet("company:ENGRO:details", data, detailsTTL).SetErr(fmt.Errorf("connection reset"))

	got, err := companies.GetCompany(context.Background(), "ENGRO")
	if err != nil {
		t.Fatalf("cache failure must not fail the read, got %v", err)
	}
	if got.Profile.Symbol != "ENGRO" || svc.calls != 1 {
		t.Error("read must fall through to the backend on cache errors")
	}
}

func TestGetCompanyGraphRoundTrip(t *testing.T) {
	db, mock := redismock.NewClientMock()
	graph := []models.GraphPoint{{Date: "2024-01-01", Last: 100, PredClose: 102}}
	svc := &fakeCompanyService{graph: graph}
	companies := NewCompanies(svc, &Client{rdb: db})

	data, _ := json.Marshal(graph)
	mock.ExpectGet("company:SYS:graph").SetErr(redis.Nil)
	mock.ExpectSet("company:SYS:graph", data, graphTTL).SetVal("OK")

	got, err := companies.GetCompanyGraph(context.Background(), "SYS")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].PredClose != 102 {
		t.Errorf("graph = %+v; want the fetched series", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestNilCacheIsPassthrough(t *testing.T) {
	svc := &fakeCompanyService{details: sampleDetails()}
	companies := NewCompanies(svc, nil)

	if _, err := companies.GetCompany(context.Background(), "ENGRO"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if svc.calls != 1 {
		t.Errorf("nil cache should call the backend directly, got %d calls", svc.calls)
	}
}
