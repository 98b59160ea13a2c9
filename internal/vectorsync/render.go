package vectorsync

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	types "github.com/estlink/crmbridge-backend/internal/domain"
)

// lookups resolves internal ids to display names while rendering. Every
// method tolerates nil ids and unknown ids, rendering nothing.
type lookups struct {
	ownerNames  map[int64]string
	stageLabels map[int64]string
}

func (l lookups) ownerName(id *int64) string {
	if id == nil {
		return ""
	}
	return l.ownerNames[*id]
}

func (l lookups) stageLabel(id *int64) string {
	if id == nil {
		return ""
	}
	return l.stageLabels[*id]
}

// docLines builds the rendered text, skipping lines with empty values.
type docLines struct {
	lines []string
}

func (d *docLines) add(label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	d.lines = append(d.lines, label+": "+value)
}

func (d *docLines) String() string {
	return strings.Join(d.lines, "\n")
}

func jsonList(raw datatypes.JSON) string {
	if len(raw) == 0 {
		return ""
	}
	var items []string
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	return strings.Join(items, ", ")
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("$%.2f", *v)
}

func dateOnly(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format("2006-01-02")
}

func renderOwner(row *types.Owner) string {
	var d docLines
	d.add("Sales rep", row.FullName())
	d.add("Email", row.Email)
	return d.String()
}

func renderCompany(row *types.Company, lk lookups) string {
	var d docLines
	d.add("Company", row.Name)
	d.add("Domain", row.Domain)
	d.add("Industry", row.Industry)
	d.add("Phone", row.Phone)
	d.add("Location", joinPlace(row.City, row.State, row.Zip))
	d.add("Lifecycle stage", row.LifecycleStage)
	if row.NumEmployees != nil {
		d.add("Employees", fmt.Sprintf("%d", *row.NumEmployees))
	}
	d.add("Annual revenue", money(row.AnnualRevenue))
	d.add("Services", jsonList(row.Services))
	d.add("Owner", lk.ownerName(row.OwnerID))
	d.add("Description", row.Description)
	return d.String()
}

func renderContact(row *types.Contact, lk lookups, companyName string) string {
	var d docLines
	d.add("Contact", row.FullName())
	d.add("Email", row.Email)
	d.add("Phone", row.Phone)
	d.add("Job title", row.JobTitle)
	d.add("Lifecycle stage", row.LifecycleStage)
	d.add("Lead status", row.LeadStatus)
	d.add("Interests", jsonList(row.Interests))
	d.add("Company", companyName)
	d.add("Owner", lk.ownerName(row.OwnerID))
	d.add("Secondary owner", lk.ownerName(row.SecondaryOwnerID))
	d.add("Sales outbound owner", lk.ownerName(row.SalesOutboundOwnerID))
	return d.String()
}

func renderProperty(row *types.Property, lk lookups) string {
	var d docLines
	d.add("Property", row.Name)
	d.add("Address", row.Address)
	d.add("Location", joinPlace(row.City, row.State, row.Zip))
	d.add("Status", row.Status)
	d.add("Type", jsonList(row.PropertyType))
	if row.Bedrooms != nil {
		d.add("Bedrooms", fmt.Sprintf("%d", *row.Bedrooms))
	}
	if row.Bathrooms != nil {
		d.add("Bathrooms", fmt.Sprintf("%g", *row.Bathrooms))
	}
	if row.SquareFeet != nil {
		d.add("Square feet", fmt.Sprintf("%g", *row.SquareFeet))
	}
	d.add("List price", money(row.ListPrice))
	d.add("Owner", lk.ownerName(row.OwnerID))
	return d.String()
}

func renderPurchaseDeal(row *types.DealPurchase, lk lookups) string {
	var d docLines
	d.add("Purchase deal", row.DealName)
	d.add("Stage", lk.stageLabel(row.StageID))
	d.add("Amount", money(row.Amount))
	d.add("Closed price", money(row.ClosedPrice))
	d.add("Deal type", jsonList(row.DealType))
	d.add("Close date", dateOnly(row.CloseDate))
	d.add("Owner", lk.ownerName(row.OwnerID))
	d.add("Lead acquirer", lk.ownerName(row.LeadAcquirerID))
	d.add("Deal creator", lk.ownerName(row.DealCreatorID))
	return d.String()
}

func renderSaleDeal(row *types.DealSale, lk lookups) string {
	var d docLines
	d.add("Sales deal", row.DealName)
	d.add("Stage", lk.stageLabel(row.StageID))
	d.add("Amount", money(row.Amount))
	d.add("Closed price", money(row.ClosedPrice))
	d.add("Deal type", jsonList(row.DealType))
	d.add("Close date", dateOnly(row.CloseDate))
	d.add("Owner", lk.ownerName(row.OwnerID))
	d.add("Lead acquirer", lk.ownerName(row.LeadAcquirerID))
	d.add("Deal creator", lk.ownerName(row.DealCreatorID))
	return d.String()
}

func renderActivity(row *types.Activity, detail *types.ActivityDetail, lk lookups) string {
	var d docLines
	d.add("Activity", activityLabel(row.Type))
	if row.OccurredAt != nil {
		d.add("Date", row.OccurredAt.UTC().Format("2006-01-02 15:04"))
	}
	d.add("Owner", lk.ownerName(row.OwnerID))
	if detail != nil {
		d.add("Subject", detail.Subject)
		d.add("Notes", detail.Body)
	}
	return d.String()
}

func activityLabel(t string) string {
	switch t {
	case types.ActivityTypeCall:
		return "Call"
	case types.ActivityTypeEmail:
		return "Email"
	case types.ActivityTypeNote:
		return "Note"
	}
	return t
}

func joinPlace(city, state, zip string) string {
	var parts []string
	for _, p := range []string{city, state, zip} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, strings.TrimSpace(p))
		}
	}
	return strings.Join(parts, ", ")
}
