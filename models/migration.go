package models

import (
	"log"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&AssetModel{}, &Asset{}, &Dispatch{},
		&AttachmentRule{}, &DetailLedgerEntry{}, &DetailSequenceCounter{},
		&PurchaseInfo{}, &VehicleRegistration{}, &SafetyChecklist{}, &WarrantyReceipt{}, &MeterLog{},
		&ServiceSchedule{}, &TripTicket{},
		&History{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
