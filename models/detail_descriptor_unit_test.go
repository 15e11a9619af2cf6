package models

import (
	"testing"

	"gorm.io/gorm"
)

func stubDescriptor(key string, category OwnerCategory) DetailDescriptor {
	return DetailDescriptor{
		Key:      key,
		Category: category,
		Build: func(tx *gorm.DB, req DetailBuildRequest) (DetailRecord, error) {
			return nil, nil
		},
	}
}

func TestRegisterDetailDescriptor_ResolveByCategoryAndKey(t *testing.T) {
	if err := RegisterDetailDescriptor(stubDescriptor("unit_test_kind", OwnerCategoryAsset)); err != nil {
		t.Fatalf("RegisterDetailDescriptor: %v", err)
	}

	if _, found := ResolveDetailDescriptor(OwnerCategoryAsset, "unit_test_kind"); !found {
		t.Fatal("expected descriptor to resolve in its own category")
	}
	// same key, different category: registry is scoped per owner category
	if _, found := ResolveDetailDescriptor(OwnerCategoryDispatch, "unit_test_kind"); found {
		t.Fatal("descriptor must not resolve outside its category")
	}
}

func TestRegisterDetailDescriptor_DuplicateKeyRejected(t *testing.T) {
	if err := RegisterDetailDescriptor(stubDescriptor("unit_test_dup", OwnerCategoryModel)); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := RegisterDetailDescriptor(stubDescriptor("unit_test_dup", OwnerCategoryModel)); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
	// the same key in another category stays legal
	if err := RegisterDetailDescriptor(stubDescriptor("unit_test_dup", OwnerCategoryDispatch)); err != nil {
		t.Fatalf("same key, other category: %v", err)
	}
}

func TestRegisterDetailDescriptor_RejectsIncomplete(t *testing.T) {
	if err := RegisterDetailDescriptor(DetailDescriptor{Key: "no_build", Category: OwnerCategoryAsset}); err == nil {
		t.Fatal("expected descriptor without Build to be rejected")
	}
	if err := RegisterDetailDescriptor(stubDescriptor("bad_category", OwnerCategory("Nope"))); err == nil {
		t.Fatal("expected descriptor with unknown category to be rejected")
	}
}

func TestResolveDetailDescriptor_UnknownKeyIsNotFoundNotError(t *testing.T) {
	// a configured key with no registered constructor is an expected outcome;
	// callers skip it, so the registry reports it via the ok bool
	if _, found := ResolveDetailDescriptor(OwnerCategoryAsset, "legacy_form"); found {
		t.Fatal("unknown key must not resolve")
	}
}
