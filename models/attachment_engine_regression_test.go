package models_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/CJB-2702/Armada-PBMS-sub001/config"
	"github.com/CJB-2702/Armada-PBMS-sub001/models"
	"github.com/CJB-2702/Armada-PBMS-sub001/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func TestAttachmentEngineCreatesConfiguredDetailsOnAssetCreate(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "armada_pbms_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// start from an empty cache
	if err := config.ClearRedis(ctx); err != nil {
		t.Fatalf("ClearRedis: %v", err)
	}

	models.MigrateTable()
	models.RegisterBuiltinDetailKinds()

	businessID := uuid.NewString()
	ctx = utils.SetBusinessIdInContext(ctx, businessID)
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	// 1) A model created before any rules exist gets zero attachments.
	corolla, err := models.CreateAssetModel(ctx, &models.NewAssetModel{
		Name:      "Corolla",
		AssetType: "Vehicle",
		Maker:     "Toyota",
	})
	if err != nil {
		t.Fatalf("CreateAssetModel: %v", err)
	}
	modelAttachments, err := models.ListDetailAttachments(ctx, models.OwnerCategoryModel, corolla.ID)
	if err != nil {
		t.Fatalf("ListDetailAttachments(model): %v", err)
	}
	if len(modelAttachments) != 0 {
		t.Fatalf("expected no attachments before any rules; got %d", len(modelAttachments))
	}

	// 2) Configure two type-level keys plus one model-level key for Corolla.
	for _, input := range []*models.NewAttachmentRule{
		{OwnerCategory: "Asset", AssetType: "Vehicle", DescriptorKey: models.DetailKeyPurchaseInfo},
		{OwnerCategory: "Asset", AssetType: "Vehicle", DescriptorKey: models.DetailKeyVehicleRegistration},
		{OwnerCategory: "Asset", AssetType: "Vehicle", ModelId: &corolla.ID, DescriptorKey: models.DetailKeyWarrantyReceipt},
	} {
		if _, err := models.CreateAttachmentRule(ctx, input); err != nil {
			t.Fatalf("CreateAttachmentRule(%s): %v", input.DescriptorKey, err)
		}
	}

	// Re-posting a rule is rejected by the pre-check, and by the
	// uniq_attachment_rule index when two admins race past it.
	if _, err := models.CreateAttachmentRule(ctx, &models.NewAttachmentRule{
		OwnerCategory: "Asset", AssetType: "Vehicle", DescriptorKey: models.DetailKeyPurchaseInfo,
	}); err == nil || !strings.Contains(err.Error(), "duplicate attachment rule") {
		t.Fatalf("duplicate rule create: got err=%v, want duplicate attachment rule", err)
	}
	if err := db.WithContext(ctx).Create(&models.AttachmentRule{
		BusinessId:    businessID,
		OwnerCategory: models.OwnerCategoryAsset,
		AssetType:     "Vehicle",
		DescriptorKey: models.DetailKeyPurchaseInfo,
		IsActive:      utils.NewTrue(),
	}).Error; err == nil {
		t.Fatalf("direct duplicate rule insert must be rejected by the unique index")
	}

	// 3) Creating a Corolla asset yields all three detail records in one step.
	vehicle, err := models.CreateAsset(ctx, &models.NewAsset{
		AssetNumber: "V-001",
		ModelId:     corolla.ID,
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	attachments := mustListAttachments(t, ctx, models.OwnerCategoryAsset, vehicle.ID)
	assertAttachmentKeys(t, attachments,
		models.DetailKeyPurchaseInfo, models.DetailKeyVehicleRegistration, models.DetailKeyWarrantyReceipt)

	// Every ledger row must point at a live concrete record.
	for _, a := range attachments {
		if a.DetailRecordId == nil || *a.DetailRecordId == 0 {
			t.Fatalf("ledger entry %d (%s) was not reconciled to a concrete record", a.LedgerEntryId, a.DescriptorKey)
		}
		record, err := models.FindDetailRecord(ctx, models.OwnerCategoryAsset, vehicle.ID, a.DescriptorKey)
		if err != nil {
			t.Fatalf("FindDetailRecord(%s): %v", a.DescriptorKey, err)
		}
		if record.GetId() != *a.DetailRecordId {
			t.Fatalf("ledger %s points at record %d; FindDetailRecord returned %d", a.DescriptorKey, *a.DetailRecordId, record.GetId())
		}
	}

	// 4) Re-attaching an already attached owner creates nothing new.
	again, err := models.AttachDetailsForOwner(ctx, models.OwnerCategoryAsset, vehicle.ID)
	if err != nil {
		t.Fatalf("AttachDetailsForOwner(repeat): %v", err)
	}
	if len(again) != 0 {
		t.Fatalf("repeat attach created %d records; want 0", len(again))
	}
	if got := mustListAttachments(t, ctx, models.OwnerCategoryAsset, vehicle.ID); len(got) != 3 {
		t.Fatalf("repeat attach changed ledger count to %d; want 3", len(got))
	}

	// 5) A Vehicle of a different model only gets the type-level baseline.
	mazda, err := models.CreateAssetModel(ctx, &models.NewAssetModel{
		Name:      "Mazda 3",
		AssetType: "Vehicle",
		Maker:     "Mazda",
	})
	if err != nil {
		t.Fatalf("CreateAssetModel(mazda): %v", err)
	}
	other, err := models.CreateAsset(ctx, &models.NewAsset{
		AssetNumber: "V-002",
		ModelId:     mazda.ID,
	})
	if err != nil {
		t.Fatalf("CreateAsset(V-002): %v", err)
	}
	assertAttachmentKeys(t, mustListAttachments(t, ctx, models.OwnerCategoryAsset, other.ID),
		models.DetailKeyPurchaseInfo, models.DetailKeyVehicleRegistration)

	// 6) A rule naming a key with no registered constructor is skipped without
	// harming the sibling keys or the owner's creation, and the skip is logged
	// as exactly one warning.
	if _, err := models.CreateAttachmentRule(ctx, &models.NewAttachmentRule{
		OwnerCategory: "Asset", AssetType: "Vehicle", DescriptorKey: "legacy_form",
	}); err != nil {
		t.Fatalf("CreateAttachmentRule(legacy_form): %v", err)
	}
	var logBuf bytes.Buffer
	logger := config.GetLogger()
	logger.SetOutput(&logBuf)
	third, err := models.CreateAsset(ctx, &models.NewAsset{
		AssetNumber: "V-003",
		ModelId:     mazda.ID,
	})
	logger.SetOutput(os.Stdout)
	if err != nil {
		t.Fatalf("CreateAsset(V-003): %v", err)
	}
	assertAttachmentKeys(t, mustListAttachments(t, ctx, models.OwnerCategoryAsset, third.ID),
		models.DetailKeyPurchaseInfo, models.DetailKeyVehicleRegistration)
	warnings := 0
	for _, line := range strings.Split(logBuf.String(), "\n") {
		if strings.Contains(line, `"level":"warning"`) && strings.Contains(line, "legacy_form") {
			warnings++
		}
	}
	if warnings != 1 {
		t.Fatalf("expected exactly one skip warning for legacy_form; got %d\n%s", warnings, logBuf.String())
	}

	// 7) Model owners attach through the same machinery.
	if _, err := models.CreateAttachmentRule(ctx, &models.NewAttachmentRule{
		OwnerCategory: "Model", AssetType: "Vehicle", DescriptorKey: models.DetailKeyServiceSchedule,
	}); err != nil {
		t.Fatalf("CreateAttachmentRule(service_schedule): %v", err)
	}
	hilux, err := models.CreateAssetModel(ctx, &models.NewAssetModel{
		Name:      "Hilux",
		AssetType: "Vehicle",
		Maker:     "Toyota",
	})
	if err != nil {
		t.Fatalf("CreateAssetModel(hilux): %v", err)
	}
	assertAttachmentKeys(t, mustListAttachments(t, ctx, models.OwnerCategoryModel, hilux.ID),
		models.DetailKeyServiceSchedule)

	// 8) Sequence numbers within the Asset category never repeat.
	var sequences []int64
	if err := db.WithContext(ctx).Model(&models.PurchaseInfo{}).
		Where("business_id = ?", businessID).
		Pluck("sequence_no", &sequences).Error; err != nil {
		t.Fatalf("pluck purchase_info sequence_no: %v", err)
	}
	if len(sequences) != 3 {
		t.Fatalf("expected 3 purchase_info records; got %d", len(sequences))
	}
	seen := make(map[int64]bool)
	for _, s := range sequences {
		if seen[s] {
			t.Fatalf("duplicate sequence number %d", s)
		}
		seen[s] = true
	}

	// 9) Detaching removes the concrete record and the ledger row together.
	if err := models.DeleteDetailAttachment(ctx, models.OwnerCategoryAsset, third.ID, models.DetailKeyPurchaseInfo); err != nil {
		t.Fatalf("DeleteDetailAttachment: %v", err)
	}
	assertAttachmentKeys(t, mustListAttachments(t, ctx, models.OwnerCategoryAsset, third.ID),
		models.DetailKeyVehicleRegistration)
	if _, err := models.FindDetailRecord(ctx, models.OwnerCategoryAsset, third.ID, models.DetailKeyPurchaseInfo); err != utils.ErrorRecordNotFound {
		t.Fatalf("expected concrete record gone after detach; got err=%v", err)
	}

	// 10) Retroactive attach: the detached key is configured again, so a
	// fresh attach pass recreates exactly the missing record.
	recreated, err := models.AttachDetailsForOwner(ctx, models.OwnerCategoryAsset, third.ID)
	if err != nil {
		t.Fatalf("AttachDetailsForOwner(retroactive): %v", err)
	}
	if len(recreated) != 1 || recreated[0].GetDescriptorKey() != models.DetailKeyPurchaseInfo {
		t.Fatalf("retroactive attach created %v; want one purchase_info", recreated)
	}

	// 11) Owner reads go through the per-instance redis cache; an update drops
	// the cached copy so the next read sees the new state.
	if _, err := models.GetAssetModel(ctx, corolla.ID); err != nil {
		t.Fatalf("GetAssetModel(prime cache): %v", err)
	}
	renamed, err := models.UpdateAssetModel(ctx, corolla.ID, &models.NewAssetModel{
		Name:      "Corolla Altis",
		AssetType: "Vehicle",
		Maker:     "Toyota",
	})
	if err != nil {
		t.Fatalf("UpdateAssetModel: %v", err)
	}
	fetched, err := models.GetAssetModel(ctx, corolla.ID)
	if err != nil {
		t.Fatalf("GetAssetModel(after update): %v", err)
	}
	if fetched.Name != renamed.Name || fetched.Name != "Corolla Altis" {
		t.Fatalf("cached read returned %q after rename to %q", fetched.Name, renamed.Name)
	}
}

func TestAttachmentEngineSequenceAndAttachUnderConcurrency(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "armada_pbms_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	models.MigrateTable()
	models.RegisterBuiltinDetailKinds()

	businessID := uuid.NewString()
	ctx = utils.SetBusinessIdInContext(ctx, businessID)
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	db := config.GetDB()

	// 1) N transactions racing on the same counter draw N distinct values.
	const workers = 8
	values := make(chan int64, workers)
	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				v, err := models.NextDetailSequence(tx, businessID, models.OwnerCategoryAsset)
				if err != nil {
					return err
				}
				values <- v
				return nil
			})
			if err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(values)
	close(errs)
	for err := range errs {
		t.Fatalf("NextDetailSequence: %v", err)
	}
	distinct := make(map[int64]bool)
	for v := range values {
		if distinct[v] {
			t.Fatalf("sequence value %d allocated twice", v)
		}
		distinct[v] = true
	}
	if len(distinct) != workers {
		t.Fatalf("expected %d distinct sequence values; got %d", workers, len(distinct))
	}
	var counter models.DetailSequenceCounter
	if err := db.WithContext(ctx).
		Where("business_id = ? AND owner_category = ?", businessID, models.OwnerCategoryAsset).
		First(&counter).Error; err != nil {
		t.Fatalf("fetch sequence counter: %v", err)
	}
	if counter.CurrentValue != int64(workers) {
		t.Fatalf("counter = %d after %d allocations; want %d", counter.CurrentValue, workers, workers)
	}

	// 2) Concurrent attach passes on the same owner never duplicate a key.
	model, err := models.CreateAssetModel(ctx, &models.NewAssetModel{
		Name:      "Generator 5kW",
		AssetType: "Equipment",
	})
	if err != nil {
		t.Fatalf("CreateAssetModel: %v", err)
	}
	// the asset is created before any Equipment rules exist, so creation
	// attaches nothing and the race below starts from a blank ledger
	asset, err := models.CreateAsset(ctx, &models.NewAsset{
		AssetNumber: "E-001",
		ModelId:     model.ID,
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	for _, key := range []string{models.DetailKeyPurchaseInfo, models.DetailKeyMeterLog} {
		if _, err := models.CreateAttachmentRule(ctx, &models.NewAttachmentRule{
			OwnerCategory: "Asset", AssetType: "Equipment", DescriptorKey: key,
		}); err != nil {
			t.Fatalf("CreateAttachmentRule(%s): %v", key, err)
		}
	}

	attachErrs := make(chan error, 2)
	var attachWg sync.WaitGroup
	for i := 0; i < 2; i++ {
		attachWg.Add(1)
		go func() {
			defer attachWg.Done()
			if _, err := models.AttachDetailsForOwner(ctx, models.OwnerCategoryAsset, asset.ID); err != nil {
				attachErrs <- err
			}
		}()
	}
	attachWg.Wait()
	close(attachErrs)
	for err := range attachErrs {
		t.Fatalf("concurrent AttachDetailsForOwner: %v", err)
	}

	attachments := mustListAttachments(t, ctx, models.OwnerCategoryAsset, asset.ID)
	assertAttachmentKeys(t, attachments, models.DetailKeyMeterLog, models.DetailKeyPurchaseInfo)
	for _, a := range attachments {
		if a.DetailRecordId == nil {
			t.Fatalf("ledger entry %s left unreconciled after concurrent attach", a.DescriptorKey)
		}
	}
}

func TestAttachmentEngineStrictModeAbortsOwnerCreate(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "armada_pbms_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	models.MigrateTable()
	models.RegisterBuiltinDetailKinds()

	// A detail kind whose constructor always fails, to drive the abort paths.
	registerErr := models.RegisterDetailDescriptor(models.DetailDescriptor{
		Key:      "flaky_gauge",
		Category: models.OwnerCategoryAsset,
		Build: func(tx *gorm.DB, req models.DetailBuildRequest) (models.DetailRecord, error) {
			return nil, errors.New("flaky_gauge build failed")
		},
		FindByOwner: func(ctx context.Context, businessId string, ownerId int) (models.DetailRecord, error) {
			return nil, utils.ErrorRecordNotFound
		},
		DeleteByOwner: func(tx *gorm.DB, businessId string, ownerId int) error {
			return nil
		},
	})
	if registerErr != nil && !strings.Contains(registerErr.Error(), "already registered") {
		t.Fatalf("RegisterDetailDescriptor(flaky_gauge): %v", registerErr)
	}

	businessID := uuid.NewString()
	ctx = utils.SetBusinessIdInContext(ctx, businessID)
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetCorrelationIdInContext(ctx, "corr-strict-1")

	db := config.GetDB()

	for _, key := range []string{models.DetailKeyPurchaseInfo, "flaky_gauge"} {
		if _, err := models.CreateAttachmentRule(ctx, &models.NewAttachmentRule{
			OwnerCategory: "Asset", AssetType: "Equipment", DescriptorKey: key,
		}); err != nil {
			t.Fatalf("CreateAttachmentRule(%s): %v", key, err)
		}
	}
	model, err := models.CreateAssetModel(ctx, &models.NewAssetModel{
		Name:      "Forklift",
		AssetType: "Equipment",
	})
	if err != nil {
		t.Fatalf("CreateAssetModel: %v", err)
	}

	// 1) Default mode: the failing key is isolated. The owner and its sibling
	// details survive, and the failure is logged with the correlation id.
	var logBuf bytes.Buffer
	logger := config.GetLogger()
	logger.SetOutput(&logBuf)
	asset, err := models.CreateAsset(ctx, &models.NewAsset{
		AssetNumber: "E-100",
		ModelId:     model.ID,
	})
	logger.SetOutput(os.Stdout)
	if err != nil {
		t.Fatalf("CreateAsset(E-100): %v", err)
	}
	assertAttachmentKeys(t, mustListAttachments(t, ctx, models.OwnerCategoryAsset, asset.ID),
		models.DetailKeyPurchaseInfo)
	if !strings.Contains(logBuf.String(), "flaky_gauge") || !strings.Contains(logBuf.String(), "corr-strict-1") {
		t.Fatalf("expected a flaky_gauge failure log carrying the correlation id; got\n%s", logBuf.String())
	}

	// 2) Strict mode: the same failure aborts the attach pass and rolls the
	// owner's creating transaction back with it.
	t.Setenv("STRICT_ATTACH_ALL_OR_NOTHING", "true")
	if _, err := models.CreateAsset(ctx, &models.NewAsset{
		AssetNumber: "E-101",
		ModelId:     model.ID,
	}); err == nil || !strings.Contains(err.Error(), "flaky_gauge") {
		t.Fatalf("strict create: got err=%v, want a flaky_gauge attach failure", err)
	}
	var orphaned int64
	if err := db.WithContext(ctx).Model(&models.Asset{}).
		Where("business_id = ? AND asset_number = ?", businessID, "E-101").
		Count(&orphaned).Error; err != nil {
		t.Fatalf("count E-101 rows: %v", err)
	}
	if orphaned != 0 {
		t.Fatalf("strict-mode failure left %d asset rows behind; want 0", orphaned)
	}
	var ledgerRows int64
	if err := db.WithContext(ctx).Model(&models.DetailLedgerEntry{}).
		Where("business_id = ?", businessID).
		Count(&ledgerRows).Error; err != nil {
		t.Fatalf("count ledger rows: %v", err)
	}
	if ledgerRows != 1 {
		t.Fatalf("ledger holds %d rows after strict rollback; want only E-100's purchase_info", ledgerRows)
	}
}

func mustListAttachments(t *testing.T, ctx context.Context, category models.OwnerCategory, ownerId int) []*models.DetailAttachment {
	t.Helper()
	attachments, err := models.ListDetailAttachments(ctx, category, ownerId)
	if err != nil {
		t.Fatalf("ListDetailAttachments(%s, %d): %v", category, ownerId, err)
	}
	return attachments
}

// assertAttachmentKeys checks the exact key set; ListDetailAttachments orders
// by descriptor_key, so want must be sorted.
func assertAttachmentKeys(t *testing.T, attachments []*models.DetailAttachment, want ...string) {
	t.Helper()
	if len(attachments) != len(want) {
		t.Fatalf("got %d attachments %v; want keys %v", len(attachments), attachmentKeys(attachments), want)
	}
	for i, a := range attachments {
		if a.DescriptorKey != want[i] {
			t.Fatalf("got keys %v; want %v", attachmentKeys(attachments), want)
		}
	}
}

func attachmentKeys(attachments []*models.DetailAttachment) []string {
	keys := make([]string, 0, len(attachments))
	for _, a := range attachments {
		keys = append(keys, a.DescriptorKey)
	}
	return keys
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("armada-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("armada-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=armada_pbms_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
