package config

// DefaultSections is the built-in section table used when the config file
// does not define one. Broad indices come from FRED, ETFs from Stooq.
func DefaultSections() []Section {
	return []Section{
		{Title: "Major Indices", Kind: "returns", Series: []SeriesEntry{
			{ID: "FRED:SP500", Name: "S&P 500"},
			{ID: "FRED:DJIA", Name: "Dow Jones"},
			{ID: "FRED:NASDAQCOM", Name: "NASDAQ Composite"},
			{ID: "STQ:IWM", Name: "Russell 2000 (IWM)"},
			{ID: "STQ:SPY", Name: "SPY ETF"},
			{ID: "STQ:QQQ", Name: "Nasdaq 100 (QQQ)"},
		}},
		{Title: "Sectors (SPDR ETFs)", Kind: "returns", Series: []SeriesEntry{
			{ID: "STQ:XLB", Name: "Materials"},
			{ID: "STQ:XLE", Name: "Energy"},
			{ID: "STQ:XLF", Name: "Financials"},
			{ID: "STQ:XLI", Name: "Industrials"},
			{ID: "STQ:XLK", Name: "Technology"},
			{ID: "STQ:XLP", Name: "Staples"},
			{ID: "STQ:XLU", Name: "Utilities"},
			{ID: "STQ:XLV", Name: "Health Care"},
			{ID: "STQ:XLY", Name: "Discretionary"},
			{ID: "STQ:XLC", Name: "Comm Services"},
		}},
		{Title: "Growth vs Value", Kind: "returns", Series: []SeriesEntry{
			{ID: "STQ:IWF", Name: "Russell 1000 Growth"},
			{ID: "STQ:IWD", Name: "Russell 1000 Value"},
			{ID: "STQ:IWO", Name: "Russell 2000 Growth"},
			{ID: "STQ:IWN", Name: "Russell 2000 Value"},
		}},
		{Title: "Valuation Ratios", Kind: "valuation", Series: []SeriesEntry{
			{ID: "MULTPL:CAPE", Name: "Shiller CAPE Ratio"},
			{ID: "FRED:QUSR628BIS", Name: "Tobin Q Ratio"},
			{ID: "FRED:DDDM01USA156NWDB", Name: "Market Cap to GDP"},
		}},
		{Title: "Volatility & Credit", Kind: "returns", Series: []SeriesEntry{
			{ID: "FRED:VIXCLS", Name: "VIX"},
			{ID: "FRED:BAMLH0A0HYM2", Name: "HY Spread"},
			{ID: "FRED:AAA", Name: "AAA Yield"},
			{ID: "FRED:BAA", Name: "BAA Yield"},
			{ID: "FRED:BAMLC0A0CMEY", Name: "IG Corporate Yield"},
			{ID: "FRED:BAMLC0A4CBBB", Name: "BBB Spread"},
		}},
		{Title: "Commodities & Energy", Kind: "returns", Series: []SeriesEntry{
			{ID: "FRED:DCOILWTICO", Name: "WTI Crude"},
			{ID: "FRED:DCOILBRENTEU", Name: "Brent Crude"},
			{ID: "FRED:DHHNGSP", Name: "Natural Gas"},
			{ID: "STQ:GLD", Name: "Gold (GLD)"},
			{ID: "STQ:XOP", Name: "Oil & Gas E&P"},
			{ID: "STQ:OIH", Name: "Oil Services"},
		}},
		{Title: "Interest Rates", Kind: "returns", Series: []SeriesEntry{
			{ID: "FRED:DFF", Name: "Fed Funds Rate"},
			{ID: "FRED:DGS3MO", Name: "3-Month Treasury"},
			{ID: "FRED:DGS2", Name: "2-Year Treasury"},
			{ID: "FRED:DGS5", Name: "5-Year Treasury"},
			{ID: "FRED:DGS10", Name: "10-Year Treasury"},
			{ID: "FRED:DGS30", Name: "30-Year Treasury"},
		}},
		{Title: "Real Estate & Intl", Kind: "returns", Series: []SeriesEntry{
			{ID: "STQ:VNQ", Name: "US REITs"},
			{ID: "STQ:IYR", Name: "US Real Estate"},
			{ID: "FRED:CSUSHPINSA", Name: "Case-Shiller Home Price Index"},
			{ID: "FRED:MORTGAGE30US", Name: "30-Yr Mortgage"},
			{ID: "STQ:EFA", Name: "Intl Developed"},
			{ID: "STQ:EEM", Name: "Emerging Markets"},
		}},
	}
}

// DefaultDifferenceCodes lists yields, spreads and valuation ratios whose
// changes are reported as absolute differences.
func DefaultDifferenceCodes() []string {
	return []string{
		"DFF", "FEDFUNDS", "TB3MS", "DGS3MO", "DGS2", "DGS5", "DGS10", "DGS30",
		"GS2", "GS5", "GS10", "GS30",
		"AAA", "BAA", "BAMLH0A0HYM2", "BAMLC0A0CMEY", "BAMLC0A4CBBB", "BAMLC0A4CBBBEY",
		"MORTGAGE30US",
		"CAPE", "QUSR628BIS", "DDDM01USA156NWDB",
	}
}
