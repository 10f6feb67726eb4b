package shopctl

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"sigs.k8s.io/yaml"

	"github.com/shopease/shopease/internal/common/util"
	"github.com/shopease/shopease/internal/shop/ingest"
	"github.com/shopease/shopease/internal/shop/model"
	"github.com/shopease/shopease/internal/shop/service"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	headerColor  = color.New(color.FgBlue, color.Bold)
	messageColor = color.New(color.FgCyan)
	successColor = color.New(color.FgGreen, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
)

// view renders shop data on w.
type view struct {
	w io.Writer
}

func (v view) title(s string) {
	titleColor.Fprintln(v.w, "\n"+s)
}

func (v view) message(format string, a ...interface{}) {
	messageColor.Fprintf(v.w, format+"\n", a...)
}

func (v view) success(format string, a ...interface{}) {
	successColor.Fprintf(v.w, format+"\n", a...)
}

func (v view) warning(format string, a ...interface{}) {
	warningColor.Fprintf(v.w, format+"\n", a...)
}

func (v view) fail(err error) {
	errorColor.Fprintln(v.w, err.Error())
}

func (v view) table(header []interface{}, rows [][]interface{}) {
	tb := util.NewTableBuilder()
	tb.Row(header...)
	for _, row := range rows {
		tb.Row(row...)
	}
	s := tb.String()
	lines := strings.SplitN(s, "\n", 2)
	headerColor.Fprintln(v.w, lines[0])
	if len(lines) > 1 {
		fmt.Fprint(v.w, lines[1])
	}
}

func (v view) products(products []*model.Product) {
	if len(products) == 0 {
		warningColor.Fprintln(v.w, "\nNo products found.")
		return
	}
	v.title("PRODUCTS CATALOG")
	rows := make([][]interface{}, len(products))
	for i, p := range products {
		rows[i] = []interface{}{p.ID, p.Name, p.CategoryName, "$" + p.Price.StringFixed(2), p.Stock}
	}
	v.table([]interface{}{"Code", "Name", "Category", "Price", "Stock"}, rows)
}

func (v view) pagination(info *service.PaginationInfo) {
	fmt.Fprintf(v.w, "Page %d of %d (%d products, %d per page)\n", info.Page, info.TotalPages, info.TotalItems, info.PageSize)
}

func (v view) product(p *model.Product, format string) error {
	if format == OutputYaml {
		out, err := yaml.Marshal(p)
		if err != nil {
			return err
		}
		_, err = v.w.Write(out)
		return err
	}
	tb := util.NewTableBuilder()
	tb.Row("Code:", p.ID)
	tb.Row("Name:", p.Name)
	tb.Row("Description:", p.Description)
	tb.Row("Category:", fmt.Sprintf("%s (%s)", p.CategoryName, p.CategoryID))
	tb.Row("Price:", "$"+p.Price.StringFixed(2))
	tb.Row("Stock:", p.Stock)
	tb.Row("Created:", p.CreatedAt.Format(time.RFC3339))
	fmt.Fprint(v.w, tb.String())
	return nil
}

func (v view) cart(lines []service.CartLine) {
	v.title("YOUR SHOPPING CART")
	if len(lines) == 0 {
		warningColor.Fprintln(v.w, "Your cart is empty. Start shopping!")
		return
	}
	rows := make([][]interface{}, len(lines))
	for i, line := range lines {
		rows[i] = []interface{}{
			line.Product.ID,
			line.Product.Name,
			line.Quantity,
			"$" + line.Product.Price.StringFixed(2),
			"$" + line.Subtotal().StringFixed(2),
		}
	}
	v.table([]interface{}{"Code", "Name", "Qty", "Unit Price", "Total"}, rows)
}

func (v view) orders(orders []*model.Order) {
	if len(orders) == 0 {
		warningColor.Fprintln(v.w, "\nNo orders found.")
		return
	}
	v.title("ORDER HISTORY")
	rows := make([][]interface{}, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []interface{}{
			o.Code(),
			o.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			o.TotalItems(),
			"$" + o.TotalAmount.StringFixed(2),
		})
	}
	v.table([]interface{}{"Code", "Date", "Items", "Total"}, rows)
}

func (v view) insertReport(report *ingest.InsertReport) {
	v.title("Bulk insert completed")
	fmt.Fprintf(v.w, "   Total Inserted: %d products\n", report.Inserted)
	fmt.Fprintf(v.w, "   Total Time: %.2f seconds\n", report.Elapsed.Seconds())
	fmt.Fprintf(v.w, "   Average Speed: %.0f products/second\n", report.Throughput())
	fmt.Fprintf(v.w, "   Database Size: ~%.1f MB estimated\n", report.EstimatedSizeMB())
	if len(report.Failures) == 0 {
		v.success("Insert operation completed successfully!")
		return
	}
	for _, f := range report.Failures {
		errorColor.Fprintf(v.w, "Error in batch %d: %s\n", f.Batch.Index, f.Err)
	}
	v.warning("%d of %d batches failed", len(report.Failures), report.Batches)
}

func (v view) readReport(report *ingest.ReadReport) {
	fmt.Fprintf(v.w, "Total products in database: %d\n", report.Total)
	if report.Empty {
		warningColor.Fprintln(v.w, "No products found. Please insert products first.")
		return
	}
	if len(report.Sample) > 0 {
		fmt.Fprintln(v.w, "\nSample Products:")
		for _, p := range report.Sample {
			fmt.Fprintf(v.w, "- %s: %s\n", p.ID, p.Name)
		}
	}
	fmt.Fprintf(v.w, "\nRead completed. Total records read: %d\n", report.Read)
	fmt.Fprintf(v.w, "Time taken: %.2f seconds\n", report.Elapsed.Seconds())
	fmt.Fprintf(v.w, "Speed: %.0f records/second\n", report.Throughput())
	v.success("Read operation completed successfully!")
}

func (v view) probeReport(report *ingest.ProbeReport) {
	fmt.Fprintf(v.w, "Total products in database: %d\n", report.Total)
	if report.Empty {
		warningColor.Fprintln(v.w, "No products found. Please run the bulk insert operation first.")
		return
	}
	for _, page := range report.Pages {
		fmt.Fprintf(v.w, "\nTesting with page size: %d\n", page.PageSize)
		fmt.Fprintf(v.w, "   Retrieved %d products in %.3f seconds\n", page.Rows, page.Elapsed.Seconds())
		fmt.Fprintf(v.w, "   Speed: %.0f products/second\n", page.Throughput())
	}
	fmt.Fprintln(v.w, "\nTesting search performance...")
	for _, search := range report.Searches {
		fmt.Fprintf(v.w, "   Search '%s': %d results in %.3f seconds\n", search.Term, search.Results, search.Elapsed.Seconds())
	}
}
