// seed-attachment-config inserts a default attachment-rule set for one
// business: the asset-category baseline ("Vehicle" assets get purchase info,
// registration and a meter log; "Truck" additionally a safety checklist), the
// model-category service schedule, and the dispatch trip ticket.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//     go run ./cmd/seed-attachment-config <business-id>
//
// Re-running is safe: rules that already exist are skipped.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/models"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
)

type seedRule struct {
	category      models.OwnerCategory
	assetType     string
	descriptorKey string
}

var defaultRules = []seedRule{
	{models.OwnerCategoryAsset, "Vehicle", models.DetailKeyPurchaseInfo},
	{models.OwnerCategoryAsset, "Vehicle", models.DetailKeyVehicleRegistration},
	{models.OwnerCategoryAsset, "Vehicle", models.DetailKeyMeterLog},
	{models.OwnerCategoryAsset, "Truck", models.DetailKeyPurchaseInfo},
	{models.OwnerCategoryAsset, "Truck", models.DetailKeyVehicleRegistration},
	{models.OwnerCategoryAsset, "Truck", models.DetailKeyMeterLog},
	{models.OwnerCategoryAsset, "Truck", models.DetailKeySafetyChecklist},
	{models.OwnerCategoryAsset, "Equipment", models.DetailKeyPurchaseInfo},
	{models.OwnerCategoryModel, "Vehicle", models.DetailKeyServiceSchedule},
	{models.OwnerCategoryModel, "Truck", models.DetailKeyServiceSchedule},
	{models.OwnerCategoryDispatch, "Vehicle", models.DetailKeyTripTicket},
	{models.OwnerCategoryDispatch, "Truck", models.DetailKeyTripTicket},
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: seed-attachment-config <business-id>")
		os.Exit(2)
	}
	businessId := os.Args[1]

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()
	models.RegisterBuiltinDetailKinds()

	ctx := context.Background()
	ctx = utils.SetBusinessIdInContext(ctx, businessId)
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Seed")

	var created, skipped int
	for _, rule := range defaultRules {
		input := models.NewAttachmentRule{
			OwnerCategory: string(rule.category),
			AssetType:     rule.assetType,
			DescriptorKey: rule.descriptorKey,
		}
		if _, err := models.CreateAttachmentRule(ctx, &input); err != nil {
			if err.Error() == "duplicate attachment rule" {
				skipped++
				continue
			}
			fmt.Fprintf(os.Stderr, "failed to create rule %s/%s/%s: %v\n",
				rule.category, rule.assetType, rule.descriptorKey, err)
			os.Exit(1)
		}
		created++
	}

	fmt.Printf("seeded attachment rules for business %s: %d created, %d skipped\n", businessId, created, skipped)
}
