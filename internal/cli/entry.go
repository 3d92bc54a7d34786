package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
	"github.com/google/uuid"
)

// Add records an income or expense entry and nudges the sync engine.
func (a *App) Add(ctx context.Context, kind string) {
	k := models.Kind(kind)
	if !k.Valid() {
		printlnFn("Unknown entry kind:", kind)
		return
	}

	owner, ok := a.owner(ctx)
	if !ok {
		return
	}

	amountText, err := GetSimpleText(a.reader, "Enter amount")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}
	amount, err := ParseAmount(amountText)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	category, err := GetSimpleText(a.reader, "Enter category")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	note, err := GetSimpleText(a.reader, "Enter note (optional)")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	receipt, err := GetSimpleText(a.reader, "Receipt file path (optional)")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	now := models.NowMillis()
	e := &models.Entry{
		ID:          uuid.NewString(),
		OwnerID:     owner,
		Kind:        k,
		Amount:      amount,
		Category:    category,
		Note:        note,
		Currency:    "INR",
		OccurredAt:  now,
		CreatedAt:   now,
		UpdatedAt:   now,
		ReceiptPath: receipt,
	}
	if err := a.repos.Entries.Save(ctx, e); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	printlnFn("Saved", e.ID)
	a.sched.NotifyLocalChange()
}

// List prints the owner's entries, newest first.
func (a *App) List(ctx context.Context) {
	owner, ok := a.owner(ctx)
	if !ok {
		return
	}

	items, err := a.repos.Entries.ListActive(ctx, owner)
	if err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	if len(items) == 0 {
		printlnFn("No entries yet.")
		return
	}

	for _, e := range items {
		day := time.UnixMilli(e.OccurredAt).Format("2006-01-02")
		line := fmt.Sprintf("%s  %-7s %10s %s  %s", day, e.Kind, FormatAmount(e.Amount), e.Currency, e.Category)
		if e.Note != "" {
			line += "  (" + e.Note + ")"
		}
		line += "  [" + e.ID + "]"
		printlnFn(line)
	}
}

// Delete tombstones an entry; the removal propagates on the next sync.
func (a *App) Delete(ctx context.Context) {
	id, err := GetSimpleText(a.reader, "Enter entry id to delete")
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	if err := a.repos.Entries.SoftDelete(ctx, id, models.NowMillis()); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}

	printlnFn("Deleted", id)
	a.sched.NotifyLocalChange()
}
