package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateScheduleManifest(ctx context.Context, data ScheduleManifest) (io.Reader, error) {
	if data.SubscriptionID == "" {
		return nil, fmt.Errorf("schedule manifest requires a subscription id")
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(15,
		text.NewCol(8, "Delivery schedule", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, data.Status, props.Text{
			Size:  12,
			Style: fontstyle.Bold,
			Align: align.Right,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Subscription: "+data.SubscriptionID, props.Text{Top: 0}),
			text.New("Plan: "+data.PlanName, props.Text{Top: 4}),
			text.New("Period: "+data.Period, props.Text{Top: 8}),
			text.New("Total: "+data.Total, props.Text{Top: 12}),
		),
		col.New(6).Add(
			text.New("Deliver to", props.Text{Style: fontstyle.Bold}),
			text.New(data.CustomerName, props.Text{Top: 4}),
			text.New(data.Phone, props.Text{Top: 8}),
			text.New("Preferred time: "+data.DeliveryTime, props.Text{Top: 12}),
		),
	)

	m.AddRow(12,
		text.NewCol(12, data.Address, props.Text{Size: 9, Top: 2}),
	)

	m.AddRow(10,
		text.NewCol(3, fmt.Sprintf("Delivered %d of %d", data.Delivered, data.Days), props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(3, fmt.Sprintf("Skips used %d of %d", data.Skipped, data.SkipDays), props.Text{Size: 9, Style: fontstyle.Bold}),
		col.New(6),
	)

	m.AddRow(10,
		text.NewCol(3, "Date", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Slot", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(5, "Address", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Status", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, entry := range data.Entries {
		m.AddRow(12,
			text.NewCol(3, entry.Date, props.Text{Size: 9}),
			text.NewCol(2, entry.TimeSlot, props.Text{Size: 9}),
			text.NewCol(5, entry.Address, props.Text{Size: 8}),
			text.NewCol(2, entry.Status, props.Text{Size: 9, Align: align.Right}),
		)
	}

	if data.GeneratedAt != "" {
		m.AddRow(10,
			text.NewCol(12, "Generated "+data.GeneratedAt, props.Text{Size: 7, Top: 4, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
