// Package output renders scraped records as a console table, JSON or CSV.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/tt67wq/xianyu-spider/internal/models"
	"github.com/tt67wq/xianyu-spider/pkg/config"
)

const unknownTime = "未知时间"

// Write renders records in the requested format. The format must have been
// validated by config; an unknown one is still rejected here.
func Write(w io.Writer, format string, records []models.ProductRecord, conf config.OutputConfig) error {
	switch format {
	case "table":
		return writeTable(w, records, conf)
	case "json":
		return writeJSON(w, records)
	case "csv":
		return writeCSV(w, records)
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func writeTable(w io.Writer, records []models.ProductRecord, conf config.OutputConfig) error {
	if len(records) == 0 {
		fmt.Fprintln(w, "没有找到商品数据")
		return nil
	}

	limit := conf.TableMaxRows
	if limit <= 0 || limit > len(records) {
		limit = len(records)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "标题", "价格", "地区", "卖家", "发布时间"})
	for i, rec := range records[:limit] {
		t.AppendRow(table.Row{
			i + 1,
			truncate(rec.Title, conf.TitleWidth),
			rec.Price,
			truncate(rec.Area, conf.AreaWidth),
			truncate(rec.Seller, conf.SellerWidth),
			publishTimeString(rec),
		})
	}
	if limit < len(records) {
		// Footer rows carry one cell per column so the grid stays aligned.
		summary := fmt.Sprintf("共 %d 个商品，显示前 %d 个", len(records), limit)
		t.AppendFooter(table.Row{"", summary, "", "", "", ""})
	}
	t.Render()
	return nil
}

func writeJSON(w io.Writer, records []models.ProductRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(records)
}

func writeCSV(w io.Writer, records []models.ProductRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"title", "price", "price_cents", "area", "seller", "link", "image_url", "publish_time",
	}); err != nil {
		return err
	}
	for _, rec := range records {
		row := []string{
			rec.Title,
			rec.Price,
			strconv.FormatInt(rec.PriceCents, 10),
			rec.Area,
			rec.Seller,
			rec.Link,
			rec.ImageURL,
			publishTimeString(rec),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func publishTimeString(rec models.ProductRecord) string {
	if rec.PublishTime == nil {
		return unknownTime
	}
	return rec.PublishTime.Format("2006-01-02 15:04")
}

func truncate(s string, width int) string {
	if width <= 2 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width-2]) + ".."
}
