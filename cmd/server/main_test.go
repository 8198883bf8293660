package main

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamdash/internal/config"
	"scamdash/internal/handlers/dashboard"
	"scamdash/internal/models"
	"scamdash/internal/services/session"
	"scamdash/internal/services/storage"
	"scamdash/internal/testutil"
)

// setupTestServer initializes dependencies with the fixture dataset and returns a test server
func setupTestServer(t *testing.T) *testutil.TestServer {
	t.Helper()

	root := testutil.ProjectRoot()
	c := config.DefaultConfig()
	c.ListenAddr = ":0"
	c.Debug = true
	c.DatasetFile = testutil.TestDatasetPath()
	c.TemplatesDirectory = filepath.Join(root, "web", "templates")
	c.StaticDirectory = filepath.Join(root, "web", "static")
	c.SessionTTL = time.Hour

	store = storage.New()
	require.NoError(t, SetupDependencies(c))

	ts := testutil.NewTestServer(t, SetupRouter())
	t.Cleanup(ts.Close)
	return ts
}

func TestHealthEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	var health struct {
		Status  string `json:"status"`
		Records int    `json:"records"`
		Skipped int    `json:"skipped"`
		Version string `json:"version"`
	}
	testutil.AssertResponse(t, ts.GET("/api/health")).
		StatusOK().
		ContentTypeJSON().
		JSON(&health)

	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 25, health.Records)
	assert.Zero(t, health.Skipped)
	assert.NotEmpty(t, health.Version)
}

func TestRootRedirect(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/")).
		RedirectsTo(http.StatusTemporaryRedirect, "/dashboard")
}

func TestDashboard(t *testing.T) {
	ts := setupTestServer(t)

	ra := testutil.AssertResponse(t, ts.GET("/dashboard")).
		StatusOK().
		ContentTypeHTML().
		ContainsAll(
			"Australia Scam Cases Dashboard",
			"Total Cases", "575",
			"Total Loss ($)", "$4,926,781.45",
			"Population (2025)", "26,800,000",
			"See More",
		).
		NotContains("Detail Breakdown of Scam Types")

	for _, id := range []string{
		dashboard.ChartStates, dashboard.ChartAgeGender, dashboard.ChartCategories,
		dashboard.ChartStateAge, dashboard.ChartScamTypes,
	} {
		ra.HasElement("chart-" + id)
	}
}

func TestDashboardStateFilter(t *testing.T) {
	ts := setupTestServer(t)

	q := url.Values{"f": {"1"}, "state": {"NSW"}, "all_categories": {"1"}}
	testutil.AssertResponse(t, ts.GETWithQuery("/dashboard", q)).
		StatusOK().
		Contains("157").
		NotContains("$4,926,781.45")
}

func TestDashboardNoStatesSelected(t *testing.T) {
	ts := setupTestServer(t)

	var kpis models.KPIs
	testutil.AssertResponse(t, ts.GETWithQuery("/dashboard/kpis", url.Values{"f": {"1"}})).
		StatusOK().
		Contains("Total Cases")

	// without a renderer the partial falls back to JSON
	dashboard.Initialize(service, sessions, nil)
	testutil.AssertResponse(t, ts.GETWithQuery("/dashboard/kpis", url.Values{"f": {"1"}})).
		StatusOK().
		ContentTypeJSON().
		JSON(&kpis)
	assert.Zero(t, kpis.TotalReports)
	assert.True(t, kpis.TotalLoss.IsZero())
	assert.Equal(t, int64(26800000), kpis.Population)
}

func TestDashboardChartData(t *testing.T) {
	ts := setupTestServer(t)

	for _, id := range dashboard.ChartIDs {
		t.Run(id, func(t *testing.T) {
			var chart models.ChartResponse
			testutil.AssertResponse(t, ts.GET("/dashboard/charts/data/"+id)).
				StatusOK().
				ContentTypeJSON().
				JSON(&chart)
			assert.NotEmpty(t, chart.Layout.Title)
		})
	}

	t.Run("states", func(t *testing.T) {
		var chart models.ChartResponse
		testutil.AssertResponse(t, ts.GET("/dashboard/charts/data/states")).JSON(&chart)
		require.Len(t, chart.Data, 1)
		assert.Equal(t, "treemap", chart.Data[0].Type)
		assert.Len(t, chart.Data[0].Labels, 8)
	})

	t.Run("unknown", func(t *testing.T) {
		testutil.AssertResponse(t, ts.GET("/dashboard/charts/data/nope")).
			Status(http.StatusBadRequest).
			Contains("Unknown chart type")
	})
}

func TestDashboardChartPNG(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/dashboard/charts/png/scam-types")).
		StatusOK().
		ContentType("image/png").
		HasPrefix([]byte("\x89PNG"))

	t.Run("no data", func(t *testing.T) {
		testutil.AssertResponse(t, ts.GETWithQuery("/dashboard/charts/png/states", url.Values{"f": {"1"}})).
			Status(http.StatusNoContent)
	})

	t.Run("unknown", func(t *testing.T) {
		testutil.AssertResponse(t, ts.GET("/dashboard/charts/png/pie")).
			Status(http.StatusBadRequest)
	})
}

func TestDashboardExport(t *testing.T) {
	ts := setupTestServer(t)

	body := testutil.AssertResponse(t, ts.GET("/dashboard/export/scam-types")).
		StatusOK().
		ContentType("text/csv").
		Header("Content-Disposition", "scamdash_scam-types.csv").
		Body()

	lines := strings.Split(strings.TrimSpace(body), "\n")
	require.Len(t, lines, 9)
	assert.Equal(t, "Scam Type,Amount Lost", lines[0])
	assert.Equal(t, "Cryptocurrency,3273500.50", lines[len(lines)-1])

	high := testutil.AssertResponse(t, ts.GET("/dashboard/export/scam-types-high")).StatusOK().Body()
	assert.Equal(t, "Scam Type,Amount Lost\nCryptocurrency,3273500.50\n", high)
}

func TestDrilldownToggle(t *testing.T) {
	ts := setupTestServer(t)

	q := url.Values{"f": {"1"}, "state": {"NSW", "VIC"}, "all_categories": {"1"}}
	resp := ts.POST("/dashboard/drilldown?"+q.Encode(), "application/x-www-form-urlencoded", nil)
	testutil.AssertResponse(t, resp).
		RedirectsTo(http.StatusSeeOther, "/dashboard?").
		SetsCookie(session.CookieName)
	assert.True(t, strings.HasSuffix(resp.Header.Get("Location"), "#scam-types"))

	// the cookie jar carries the session into the next request
	testutil.AssertResponse(t, ts.GETWithQuery("/dashboard", q)).
		StatusOK().
		ContainsAll("Detail Breakdown of Scam Types", "See Less").
		HasElement("chart-" + dashboard.ChartScamTypesHigh).
		HasElement("chart-" + dashboard.ChartScamTypesLow)

	testutil.AssertResponse(t, ts.POST("/dashboard/drilldown", "application/x-www-form-urlencoded", nil)).
		Status(http.StatusSeeOther)
	testutil.AssertResponse(t, ts.GET("/dashboard")).
		StatusOK().
		NotContains("Detail Breakdown of Scam Types")
}

func TestDrilldownIsPerSession(t *testing.T) {
	ts := setupTestServer(t)

	ts.POST("/dashboard/drilldown", "application/x-www-form-urlencoded", nil).Body.Close()

	other := testutil.NewTestServer(t, SetupRouter())
	defer other.Close()
	testutil.AssertResponse(t, other.GET("/dashboard")).
		StatusOK().
		NotContains("Detail Breakdown of Scam Types")
}

func TestMetricsEndpoint(t *testing.T) {
	ts := setupTestServer(t)

	ts.GET("/dashboard").Body.Close()
	testutil.AssertResponse(t, ts.GET("/metrics")).
		StatusOK().
		ContainsAll("scamdash_records_loaded 25", "scamdash_renders_total", "scamdash_http_requests_total")
}

func TestStaticAssets(t *testing.T) {
	ts := setupTestServer(t)

	testutil.AssertResponse(t, ts.GET("/static/js/dashboard.js")).
		StatusOK().
		Contains("Plotly")
}

func TestSetupDependenciesMissingDataset(t *testing.T) {
	c := config.DefaultConfig()
	c.DatasetFile = filepath.Join(t.TempDir(), "missing.csv")
	c.TemplatesDirectory = filepath.Join(testutil.ProjectRoot(), "web", "templates")

	store = storage.New()
	assert.Error(t, SetupDependencies(c))
}
