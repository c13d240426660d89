package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mstarsupply/mstarsupply/internal/app"
	"github.com/mstarsupply/mstarsupply/internal/inventory"
)

var demoItems = []inventory.ItemInput{
	{Name: "Parafuso Sextavado M8", RegistrationNumber: "PAR-0008", Manufacturer: "Ciser", Category: "Fixação", UnitCost: "0.35"},
	{Name: "Porca M8", RegistrationNumber: "POR-0008", Manufacturer: "Ciser", Category: "Fixação", UnitCost: "0.12"},
	{Name: "Luva Nitrílica", RegistrationNumber: "EPI-0101", Manufacturer: "Danny", Category: "EPI", Description: "Par, tamanho M", UnitCost: "8.90"},
	{Name: "Óculos de Proteção", RegistrationNumber: "EPI-0202", Manufacturer: "3M", Category: "EPI", UnitCost: "14.50"},
	{Name: "Cabo Flexível 2,5mm", RegistrationNumber: "ELE-0025", Manufacturer: "Sil", Category: "Elétrica", Description: "Rolo 100m", UnitCost: "189.90"},
	{Name: "Disjuntor 20A", RegistrationNumber: "ELE-0120", Manufacturer: "Steck", Category: "Elétrica", UnitCost: "22.40"},
}

type demoMovement struct {
	item     int
	quantity int64
	day      int
	locality string
}

var demoInflows = []demoMovement{
	{item: 0, quantity: 500, day: 2, locality: "Depósito Central"},
	{item: 1, quantity: 500, day: 2, locality: "Depósito Central"},
	{item: 2, quantity: 120, day: 3, locality: "Almoxarifado"},
	{item: 3, quantity: 40, day: 3, locality: "Almoxarifado"},
	{item: 4, quantity: 12, day: 5, locality: "Depósito Central"},
	{item: 5, quantity: 30, day: 5, locality: "Depósito Central"},
	{item: 0, quantity: 250, day: 18, locality: "Depósito Central"},
}

var demoOutflows = []demoMovement{
	{item: 0, quantity: 320, day: 9, locality: "Obra Norte"},
	{item: 1, quantity: 410, day: 9, locality: "Obra Norte"},
	{item: 2, quantity: 95, day: 12, locality: "Manutenção"},
	{item: 3, quantity: 38, day: 12, locality: "Manutenção"},
	{item: 4, quantity: 3, day: 20, locality: "Obra Sul"},
	{item: 5, quantity: 28, day: 22, locality: "Obra Sul"},
}

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.LedgerDriver == app.DriverMemory {
		log.Fatalf("seed: LEDGER_DRIVER=%s keeps nothing, point PG_DSN at a database", cfg.LedgerDriver)
	}
	logger := app.NewLogger(cfg)
	store, err := app.OpenLedger(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open ledger: %v", err)
	}
	defer store.Close()

	svc := inventory.NewService(store.Store, store.Audit, logger, inventory.WithActor("seed"))

	fmt.Println("→ Seeding items...")
	ids, err := seedItems(ctx, svc)
	if err != nil {
		log.Fatalf("seed items: %v", err)
	}

	now := time.Now()
	month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local).AddDate(0, -1, 0)
	fmt.Printf("→ Seeding movements for %02d/%d...\n", int(month.Month()), month.Year())
	for _, m := range demoInflows {
		if _, err := svc.RegisterInflow(ctx, movementInput(ids, month, m)); err != nil {
			log.Fatalf("seed inflow: %v", err)
		}
	}
	for _, m := range demoOutflows {
		if _, err := svc.RegisterOutflow(ctx, movementInput(ids, month, m)); err != nil {
			log.Fatalf("seed outflow: %v", err)
		}
	}
	fmt.Println("✓ Seed complete")
}

func seedItems(ctx context.Context, svc *inventory.Service) ([]int64, error) {
	existing, err := svc.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	byReg := make(map[string]int64, len(existing))
	for _, it := range existing {
		byReg[it.RegistrationNumber] = it.ID
	}
	ids := make([]int64, len(demoItems))
	for i, input := range demoItems {
		if id, ok := byReg[input.RegistrationNumber]; ok {
			ids[i] = id
			continue
		}
		item, err := svc.RegisterItem(ctx, input)
		if err != nil {
			return nil, err
		}
		ids[i] = item.ID
	}
	return ids, nil
}

func movementInput(ids []int64, month time.Time, m demoMovement) inventory.MovementInput {
	at := month.AddDate(0, 0, m.day-1).Add(9 * time.Hour)
	return inventory.MovementInput{
		ItemID:    ids[m.item],
		Quantity:  m.quantity,
		Timestamp: at.Format(inventory.TimestampLayout),
		Locality:  m.locality,
	}
}
