package receipt

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// OrderReceiptData carries everything the order receipt layout needs. Amounts
// arrive pre-formatted so the layout stays free of locale decisions.
type OrderReceiptData struct {
	AppName      string
	OSNumber     string
	CustomerName string
	Technician   string
	IssuedAt     string
	Status       string

	Items []ReceiptItem

	Subtotal  string
	Discount  string
	Surcharge string
	Total     string
	Payment   string
}

type ReceiptItem struct {
	Description string
	Qty         string
	UnitPrice   string
	Amount      string
}

// PurchaseReceiptData is the layout input for a single installment receipt.
type PurchaseReceiptData struct {
	AppName      string
	SupplierName string
	Item         string
	Invoice      string
	Installment  string
	DueDate      string
	Status       string
	Total        string
}

func newDocument() core.Maroto {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()
	return maroto.New(cfg)
}

// RenderOrderReceipt produces a PDF for a delivered service order.
func RenderOrderReceipt(data OrderReceiptData) ([]byte, error) {
	m := newDocument()

	m.AddRow(20,
		text.NewCol(8, data.AppName, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.OSNumber, props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Customer: "+data.CustomerName, props.Text{Top: 0}),
			text.New("Technician: "+data.Technician, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New("Issued: "+data.IssuedAt, props.Text{Top: 0, Align: align.Right}),
			text.New("Status: "+data.Status, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range data.Items {
		m.AddRow(8,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, item.Qty, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, data.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Discount", props.Text{Size: 9}),
		text.NewCol(2, data.Discount, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		col.New(8),
		text.NewCol(2, "Surcharge", props.Text{Size: 9}),
		text.NewCol(2, data.Surcharge, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, data.Total, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if data.Payment != "" {
		m.AddRow(12,
			text.NewCol(12, fmt.Sprintf("Paid via %s", data.Payment), props.Text{
				Size:  10,
				Style: fontstyle.Bold,
				Top:   4,
			}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}

// RenderPurchaseReceipt produces a PDF voucher for one purchase installment.
func RenderPurchaseReceipt(data PurchaseReceiptData) ([]byte, error) {
	m := newDocument()

	m.AddRow(20,
		text.NewCol(12, data.AppName, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(12,
		text.NewCol(12, "Purchase receipt", props.Text{
			Size:  14,
			Style: fontstyle.Bold,
		}),
	)

	m.AddRow(45,
		col.New(12).Add(
			text.New("Supplier: "+data.SupplierName, props.Text{Top: 0}),
			text.New("Item: "+data.Item, props.Text{Top: 6}),
			text.New("Invoice: "+data.Invoice, props.Text{Top: 12}),
			text.New("Installment: "+data.Installment, props.Text{Top: 18}),
			text.New("Due date: "+data.DueDate, props.Text{Top: 24}),
			text.New("Status: "+data.Status, props.Text{Top: 30}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, "Amount: "+data.Total, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Top:   4,
		}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return doc.GetBytes(), nil
}
