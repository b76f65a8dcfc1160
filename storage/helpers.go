package storage

import (
	"github.com/vc-anchorage/anchorage/storage/model"
)

// GetVaultKeyCheck returns the stored vault key check value, "" if none is
// stored yet.
func GetVaultKeyCheck(kvStorage model.KeyValueAccessor) (string, error) {
	if kvStorage == nil {
		return "", nil
	}
	var check string
	found, err := kvStorage.GetAs(model.KeyValueScopeVault, model.KeyValueKeyKeyCheck, &check)
	if err != nil || !found {
		return "", err
	}
	return check, nil
}

// SetVaultKeyCheck stores the vault key check value.
func SetVaultKeyCheck(kvStorage model.KeyValueAccessor, check string) error {
	if kvStorage == nil {
		return nil
	}
	return kvStorage.SetAny(model.KeyValueScopeVault, model.KeyValueKeyKeyCheck, check)
}
