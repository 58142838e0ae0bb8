package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shaiso/Faktura/internal/domain"
	"github.com/shaiso/Faktura/internal/render"
)

// reportDateFormat — формат даты в шапке отчёта.
const reportDateFormat = "15:04:05, 02.01.2006"

// buildPayload проецирует инвойс в payload рендера.
//
// Line total каждой позиции и итоговая сумма считаются в точной
// десятичной арифметике — никакого float64 для денег.
//
// По ходу итерации обновляется heartbeat: каждая heartbeatEvery-я позиция
// и безусловно последняя. Кадентность привязана к прогрессу, а не к общему
// времени работы, поэтому Reaper не примет большой, но живой инвойс
// за зависший.
func (e *Executor) buildPayload(ctx context.Context, jobID uuid.UUID, inv *domain.Invoice) *render.Payload {
	items := make([]render.Line, 0, len(inv.Items))
	total := decimal.Zero

	for i := range inv.Items {
		item := &inv.Items[i]
		lineTotal := item.LineTotal()
		total = total.Add(lineTotal)

		items = append(items, render.Line{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Total:     lineTotal,
		})

		if (i+1)%e.heartbeatEvery == 0 || i == len(inv.Items)-1 {
			if err := e.ledger.Heartbeat(ctx, jobID); err != nil {
				e.logger.Warn("heartbeat failed", "job_id", jobID, "error", err)
			}
		}
	}

	p := &render.Payload{
		Company: inv.CompanyName,
		Address: inv.Address,
		LogoKey: inv.LogoKey,
		Date:    time.Now().Format(reportDateFormat),
		Items:   items,
		Total:   total,
	}

	if inv.Customer != nil {
		p.Customer = &render.CustomerInfo{
			Name:    inv.Customer.Name,
			Email:   inv.Customer.Email,
			Phone:   inv.Customer.Phone,
			Address: inv.Customer.Address,
		}
	}

	return p
}
