// Package export writes completed analysis results to XLSX workbooks.
package export

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/siteintel/internal/model"
)

// WriteWorkbook writes an analysis with its products and insights to an XLSX
// file at path. Empty product or insight slices still produce their sheets
// so the workbook shape is stable.
func WriteWorkbook(path string, analysis *model.Analysis, products []model.Product, insights []model.Insight) error {
	if analysis == nil {
		return eris.New("export: nil analysis")
	}

	f := xlsx.NewFile()

	if err := addSummarySheet(f, analysis); err != nil {
		return err
	}
	if err := addProductSheet(f, products); err != nil {
		return err
	}
	if err := addInsightSheet(f, insights); err != nil {
		return err
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save workbook")
	}
	return nil
}

func addSummarySheet(f *xlsx.File, analysis *model.Analysis) error {
	sheet, err := f.AddSheet("Summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}

	addPair := func(key, value string) {
		row := sheet.AddRow()
		row.AddCell().SetString(key)
		row.AddCell().SetString(value)
	}

	addPair("Analysis ID", analysis.ID)
	addPair("URL", analysis.URL)
	addPair("Kind", string(analysis.Kind))
	if analysis.CompetitorName != "" {
		addPair("Competitor", analysis.CompetitorName)
	}
	addPair("Status", string(analysis.Status))

	if r := analysis.Report; r != nil {
		addPair("Title", r.Title)
		addPair("Industry", r.Industry)
		addPair("Overall score", fmt.Sprintf("%d", r.OverallScore))
		addPair("SEO score", fmt.Sprintf("%d", r.SEOScore))
		addPair("Performance score", fmt.Sprintf("%d", r.PerformanceScore))
		addPair("UX score", fmt.Sprintf("%d", r.UXScore))
		addPair("Content score", fmt.Sprintf("%d", r.ContentScore))
		if r.Degraded {
			addPair("Degraded", "yes")
		}
	}

	if ps := analysis.Pricing; ps != nil {
		addPair("Products priced", fmt.Sprintf("%d", ps.ProductCount))
		addPair("Average price", fmt.Sprintf("%.2f", ps.AvgPrice))
		addPair("Min price", fmt.Sprintf("%.2f", ps.MinPrice))
		addPair("Max price", fmt.Sprintf("%.2f", ps.MaxPrice))
	}

	return nil
}

func addProductSheet(f *xlsx.File, products []model.Product) error {
	sheet, err := f.AddSheet("Products")
	if err != nil {
		return eris.Wrap(err, "export: add product sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Name", "Price", "Currency", "Category", "In stock", "URL"} {
		header.AddCell().SetString(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetString(p.Name)
		if p.Price != nil {
			row.AddCell().SetFloat(*p.Price)
		} else {
			row.AddCell().SetString("")
		}
		row.AddCell().SetString(p.Currency)
		row.AddCell().SetString(p.Category)
		if p.InStock {
			row.AddCell().SetString("yes")
		} else {
			row.AddCell().SetString("no")
		}
		row.AddCell().SetString(p.ProductURL)
	}

	return nil
}

func addInsightSheet(f *xlsx.File, insights []model.Insight) error {
	sheet, err := f.AddSheet("Insights")
	if err != nil {
		return eris.Wrap(err, "export: add insight sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{"Priority", "Category", "Title", "Impact", "Recommendation"} {
		header.AddCell().SetString(h)
	}

	for _, ins := range insights {
		row := sheet.AddRow()
		row.AddCell().SetString(string(ins.Priority))
		row.AddCell().SetString(ins.Category)
		row.AddCell().SetString(ins.Title)
		row.AddCell().SetInt(ins.EstimatedImpact)
		row.AddCell().SetString(ins.Recommendation)
	}

	return nil
}
