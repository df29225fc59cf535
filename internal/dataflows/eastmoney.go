package dataflows

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/hweilin/quantmind/config"
	"github.com/hweilin/quantmind/models"
)

const eastMoneyBaseURL = "https://datacenter-web.eastmoney.com/api/data/v1/get"

// EastMoneyClient fetches financial statements and valuation ratios from
// the EastMoney data center. Figures are reported in CNY.
type EastMoneyClient struct {
	client *resty.Client
	cache  *CacheManager
}

func NewEastMoneyClient(cfg *config.Config) *EastMoneyClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "eastmoney")
	cache := NewCacheManager(cacheDir, 24*time.Hour, cfg.CacheEnabled)

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; QuantMind/1.0)")
	client.SetHeader("Referer", "https://data.eastmoney.com/")

	return &EastMoneyClient{client: client, cache: cache}
}

type emEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result  struct {
		Count int `json:"count"`
	} `json:"result"`
}

type emIndicatorRow struct {
	ReportDate      string  `json:"REPORT_DATE"`
	EPS             float64 `json:"EPSJB"`
	ROE             float64 `json:"ROEJQ"`
	NetMargin       float64 `json:"XSJLL"`
	GrossMargin     float64 `json:"XSMLL"`
	DebtRatio       float64 `json:"ZCFZL"`
	CurrentRatio    float64 `json:"LD"`
	RevenueGrowth   float64 `json:"TOTALOPERATEREVETZ"`
	EarningsGrowth  float64 `json:"PARENTNETPROFITTZ"`
	BookValueGrowth float64 `json:"MGJZCTZ"`
	FCFPerShare     float64 `json:"MGJYXJJE"`
	Industry        string  `json:"INDUSTRY"`
}

type emIndicatorResponse struct {
	emEnvelope
	Result struct {
		Data []emIndicatorRow `json:"data"`
	} `json:"result"`
}

type emValuationRow struct {
	PETTM float64 `json:"PE_TTM"`
	PBMRQ float64 `json:"PB_MRQ"`
	PSTTM float64 `json:"PS_TTM"`
}

type emValuationResponse struct {
	emEnvelope
	Result struct {
		Data []emValuationRow `json:"data"`
	} `json:"result"`
}

type emCashflowRow struct {
	ReportDate     string  `json:"REPORT_DATE"`
	NetProfit      float64 `json:"NETPROFIT"`
	Depreciation   float64 `json:"FA_IR_DEPR"`
	CapEx          float64 `json:"CONSTRUCT_LONG_ASSET"`
	WorkingCapital float64 `json:"WORKING_CAPITAL"`
	OperatingCash  float64 `json:"NETCASH_OPERATE"`
}

type emCashflowResponse struct {
	emEnvelope
	Result struct {
		Data []emCashflowRow `json:"data"`
	} `json:"result"`
}

// GetFinancials assembles the metrics and the last two statement periods
// for a symbol.
func (ec *EastMoneyClient) GetFinancials(symbol string) (models.Financials, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return models.Financials{}, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.Financials
	if ec.cache.Get("eastmoney", "financials", symbol, &cached) {
		return cached, nil
	}

	var fin models.Financials
	err := WithRetry(DefaultRetryConfig(), func() error {
		indicators, err := ec.fetchIndicators(symbol)
		if err != nil {
			return err
		}
		valuation, err := ec.fetchValuation(symbol)
		if err != nil {
			return err
		}
		cashflows, err := ec.fetchCashflows(symbol)
		if err != nil {
			return err
		}

		latest := indicators[0]
		fin = models.Financials{
			Metrics: models.FinancialMetrics{
				PERatio:              valuation.PETTM,
				PriceToBook:          valuation.PBMRQ,
				PriceToSales:         valuation.PSTTM,
				ReturnOnEquity:       latest.ROE / 100,
				NetMargin:            latest.NetMargin / 100,
				OperatingMargin:      latest.GrossMargin / 100,
				RevenueGrowth:        latest.RevenueGrowth / 100,
				EarningsGrowth:       latest.EarningsGrowth / 100,
				BookValueGrowth:      latest.BookValueGrowth / 100,
				CurrentRatio:         latest.CurrentRatio,
				DebtToEquity:         debtToEquity(latest.DebtRatio),
				FreeCashFlowPerShare: latest.FCFPerShare,
				EarningsPerShare:     latest.EPS,
			},
			Sector: latest.Industry,
		}

		fin.Current = lineItems(cashflows[0])
		if len(cashflows) > 1 {
			fin.Previous = lineItems(cashflows[1])
		}
		return nil
	})
	if err != nil {
		return models.Financials{}, err
	}

	ec.cache.Set("eastmoney", "financials", symbol, fin)
	return fin, nil
}

func lineItems(row emCashflowRow) models.FinancialLineItems {
	return models.FinancialLineItems{
		NetIncome:                   row.NetProfit,
		DepreciationAndAmortization: row.Depreciation,
		CapitalExpenditure:          row.CapEx,
		WorkingCapital:              row.WorkingCapital,
		FreeCashFlow:                row.OperatingCash - row.CapEx,
	}
}

// debtToEquity converts a total debt ratio percentage into debt/equity.
func debtToEquity(debtRatio float64) float64 {
	ratio := debtRatio / 100
	if ratio >= 1 || ratio < 0 {
		return 0
	}
	return ratio / (1 - ratio)
}

func (ec *EastMoneyClient) fetchIndicators(symbol string) ([]emIndicatorRow, error) {
	var out emIndicatorResponse
	if err := ec.fetchReport("RPT_DMSK_FN_MAIN", symbol, 2, &out); err != nil {
		return nil, err
	}
	if !out.Success || len(out.Result.Data) == 0 {
		return nil, fmt.Errorf("no financial indicators for %s: %s", symbol, out.Message)
	}
	return out.Result.Data, nil
}

func (ec *EastMoneyClient) fetchValuation(symbol string) (emValuationRow, error) {
	var out emValuationResponse
	if err := ec.fetchReport("RPT_VALUEANALYSIS_DET", symbol, 1, &out); err != nil {
		return emValuationRow{}, err
	}
	if !out.Success || len(out.Result.Data) == 0 {
		return emValuationRow{}, fmt.Errorf("no valuation data for %s: %s", symbol, out.Message)
	}
	return out.Result.Data[0], nil
}

func (ec *EastMoneyClient) fetchCashflows(symbol string) ([]emCashflowRow, error) {
	var out emCashflowResponse
	if err := ec.fetchReport("RPT_DMSK_FN_CASHFLOW", symbol, 2, &out); err != nil {
		return nil, err
	}
	if !out.Success || len(out.Result.Data) == 0 {
		return nil, fmt.Errorf("no cash flow data for %s: %s", symbol, out.Message)
	}
	return out.Result.Data, nil
}

func (ec *EastMoneyClient) fetchReport(reportName, symbol string, pageSize int, result interface{}) error {
	resp, err := ec.client.R().
		SetQueryParams(map[string]string{
			"reportName": reportName,
			"columns":    "ALL",
			"filter":     fmt.Sprintf(`(SECURITY_CODE="%s")`, symbol),
			"sortColumns": "REPORT_DATE",
			"sortTypes":   "-1",
			"pageNumber":  "1",
			"pageSize":    fmt.Sprintf("%d", pageSize),
		}).
		SetResult(result).
		Get(eastMoneyBaseURL)
	if err != nil {
		return fmt.Errorf("fetch %s for %s: %w", reportName, symbol, err)
	}
	if resp.StatusCode() != 200 {
		return fmt.Errorf("HTTP %d fetching %s for %s", resp.StatusCode(), reportName, symbol)
	}
	return nil
}
