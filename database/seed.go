package database

import (
	"club_manager/model"
	"log"
	"time"

	"gorm.io/gorm"
)

func parseDate(dateStr string) time.Time {
	t, _ := time.Parse("2006-01-02 15:04", dateStr)
	return t
}

func SeedData(db *gorm.DB) {
	matches := []model.Match{
		{PublicCode: "MTC-HOME-001", Opponent: "Rovers FC", Venue: "Club Arena", KickoffAt: parseDate("2026-09-20 18:00")},
		{PublicCode: "MTC-HOME-002", Opponent: "United SC", Venue: "Club Arena", KickoffAt: parseDate("2026-10-04 20:30")},
	}
	for i := range matches {
		if err := db.Where(model.Match{PublicCode: matches[i].PublicCode}).FirstOrCreate(&matches[i]).Error; err != nil {
			log.Println("failed to seed match:", matches[i].PublicCode, "error:", err)
		}
	}

	sectors := []model.Sector{
		{MatchId: matches[0].ID, Name: "North Stand", Capacity: 500, Price: 25},
		{MatchId: matches[0].ID, Name: "Main Tribune", Capacity: 200, Price: 45},
		{MatchId: matches[1].ID, Name: "North Stand", Capacity: 500, Price: 25},
	}
	for i := range sectors {
		if err := db.Where(model.Sector{MatchId: sectors[i].MatchId, Name: sectors[i].Name}).
			FirstOrCreate(&sectors[i]).Error; err != nil {
			log.Println("failed to seed sector:", sectors[i].Name, "error:", err)
		}
	}

	products := []model.Product{
		{Name: "Home Shirt 2026", Description: "Official home shirt"},
		{Name: "Club Scarf", Description: "Knitted scarf"},
	}
	for i := range products {
		if err := db.Where(model.Product{Name: products[i].Name}).FirstOrCreate(&products[i]).Error; err != nil {
			log.Println("failed to seed product:", products[i].Name, "error:", err)
		}
	}

	sizes := []model.ProductSize{
		{ProductId: products[0].ID, Size: "M", Stock: 50, Price: 80},
		{ProductId: products[0].ID, Size: "L", Stock: 50, Price: 80},
		{ProductId: products[1].ID, Size: "ONE", Stock: 120, Price: 20},
	}
	for i := range sizes {
		if err := db.Where(model.ProductSize{ProductId: sizes[i].ProductId, Size: sizes[i].Size}).
			FirstOrCreate(&sizes[i]).Error; err != nil {
			log.Println("failed to seed product size:", sizes[i].Size, "error:", err)
		}
	}

	plans := []model.MembershipPlan{
		{Name: "Season Member", Price: 300, ValidityMonths: 12},
		{Name: "Half Season", Price: 180, ValidityMonths: 6},
	}
	for i := range plans {
		if err := db.Where(model.MembershipPlan{Name: plans[i].Name}).FirstOrCreate(&plans[i]).Error; err != nil {
			log.Println("failed to seed plan:", plans[i].Name, "error:", err)
		}
	}

	// Inventory units mirror sector capacity and size stock.
	for _, sector := range sectors {
		unit := model.InventoryUnit{UnitID: model.SectorUnitID(sector.MatchId, sector.ID), Total: sector.Capacity}
		if err := db.Where(model.InventoryUnit{UnitID: unit.UnitID}).FirstOrCreate(&unit).Error; err != nil {
			log.Println("failed to seed inventory unit:", unit.UnitID, "error:", err)
		}
	}
	for _, size := range sizes {
		unit := model.InventoryUnit{UnitID: model.SizeUnitID(size.ID), Total: size.Stock}
		if err := db.Where(model.InventoryUnit{UnitID: unit.UnitID}).FirstOrCreate(&unit).Error; err != nil {
			log.Println("failed to seed inventory unit:", unit.UnitID, "error:", err)
		}
	}
}
