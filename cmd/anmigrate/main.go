package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	slices2 "tideland.dev/go/slices"

	"github.com/vc-anchorage/anchorage/cmd/anchorage/config"
	"github.com/vc-anchorage/anchorage/compact"
	"github.com/vc-anchorage/anchorage/storage"
	"github.com/vc-anchorage/anchorage/storage/model"
	"github.com/vc-anchorage/anchorage/vault"
)

func usage() {
	_, _ = fmt.Fprintf(os.Stderr, "anmigrate: migrate legacy registry data and re-seal stored credentials\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Subcommands:\n")
	_, _ = fmt.Fprintf(os.Stderr, "  db       Migrate legacy storage data (json or badger) to the GORM-based database\n")
	_, _ = fmt.Fprintf(os.Stderr, "  vault    Re-seal all stored credentials under a new vault key\n")
	_, _ = fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprintf(os.Stderr, "Use 'anmigrate <subcommand> -h' for help on a subcommand.\n")
}

// migration carries the destination of a db migration run.
type migration struct {
	warehouse *storage.Storage
	sealer    *vault.Vault
	dryRun    bool
}

func (m migration) holders(src legacySource) error {
	holders, err := src.Holders()
	if err != nil {
		return err
	}
	for _, h := range holders {
		if h.Subject == "" {
			log.Debug("skipping holder without subject")
			continue
		}
		if m.dryRun {
			continue
		}
		if _, _, err = m.warehouse.HolderStorage().Register(
			model.AddHolder{
				Subject:     h.Subject,
				DisplayName: h.DisplayName,
			},
		); err != nil {
			return err
		}
	}
	log.WithField("holders", len(holders)).Info("migrated holders")
	return nil
}

func (m migration) issuers(src legacySource) error {
	issuers, err := src.Issuers()
	if err != nil {
		return err
	}
	var keys int
	for _, issuer := range issuers {
		if issuer.Identifier == "" {
			log.Debug("skipping issuer without identifier")
			continue
		}
		if !m.dryRun {
			if _, _, err = m.warehouse.IssuerStorage().Register(
				model.AddIssuer{
					Identifier: issuer.Identifier,
					Name:       issuer.Name,
				},
			); err != nil {
				return err
			}
		}
		for _, key := range issuer.Keys {
			if m.dryRun {
				keys++
				continue
			}
			if _, err = m.warehouse.IssuerStorage().AddKey(
				model.AddIssuerKey{
					Issuer:       issuer.Identifier,
					KID:          key.KID,
					Alg:          key.Alg,
					PublicKeyPEM: key.PublicKeyPEM,
					IsActive:     key.IsActive,
				},
			); err != nil {
				var dup model.DuplicateKeyError
				if errors.As(err, &dup) {
					log.WithField("kid", key.KID).Warn("key already registered, skipping")
					continue
				}
				return err
			}
			keys++
			if key.Revoked {
				if _, err = m.warehouse.IssuerStorage().RevokeKey(key.KID, key.RevokeReason); err != nil {
					return err
				}
			}
		}
	}
	log.WithFields(
		log.Fields{
			"issuers": len(issuers),
			"keys":    keys,
		},
	).Info("migrated issuers")
	return nil
}

// convertCredential turns a legacy record into a sealed Credential. Legacy
// stores were not strict about metadata, so missing fields are recovered from
// the raw token where possible.
func (m migration) convertCredential(legacy legacyCredential) (*model.Credential, error) {
	raw := strings.TrimSpace(legacy.JWS)
	if raw == "" {
		return nil, errors.New("record has no raw token")
	}
	if legacy.TokenID == "" || legacy.IssuerID == "" || legacy.HolderSubject == "" {
		if token, err := compact.Parse(raw); err == nil {
			if legacy.TokenID == "" {
				legacy.TokenID = token.TokenID()
			}
			if legacy.IssuerID == "" {
				legacy.IssuerID = token.Issuer()
			}
			if legacy.HolderSubject == "" {
				legacy.HolderSubject = token.Subject()
			}
			if legacy.Types == nil {
				legacy.Types = token.Types()
			}
		}
	}
	if legacy.TokenID == "" {
		return nil, errors.New("record has no token id")
	}
	status := model.StatusActive
	if legacy.Status == model.StatusRevoked.String() {
		status = model.StatusRevoked
	}
	var types datatypes.JSON
	if legacy.Types != nil {
		data, err := json.Marshal(legacy.Types)
		if err != nil {
			return nil, err
		}
		types = data
	}
	sealed, err := m.sealer.Encrypt(raw)
	if err != nil {
		return nil, err
	}
	format := legacy.Format
	if format == "" {
		format = model.FormatJWS
	}
	return &model.Credential{
		TokenID:          legacy.TokenID,
		Format:           format,
		IssuerID:         legacy.IssuerID,
		HolderSubject:    legacy.HolderSubject,
		Types:            types,
		IssuedAt:         legacy.IssuedAt,
		NotBefore:        legacy.NotBefore,
		ExpiresAt:        legacy.ExpiresAt,
		Status:           status,
		RevokedAt:        legacy.RevokedAt,
		RevokeReason:     legacy.RevokeReason,
		EncryptedPayload: sealed,
		Fingerprint:      vault.Fingerprint(raw),
	}, nil
}

func (m migration) credentials(src legacySource) error {
	legacyCreds, err := src.Credentials()
	if err != nil {
		return err
	}
	var (
		creds    []*model.Credential
		revoked  []model.RevocationEntry
		subjects []string
	)
	for _, legacy := range legacyCreds {
		cred, err := m.convertCredential(legacy)
		if err != nil {
			log.WithError(err).WithField("jti", legacy.TokenID).Warn("skipping credential")
			continue
		}
		creds = append(creds, cred)
		if cred.HolderSubject != "" {
			subjects = append(subjects, cred.HolderSubject)
		}
		if cred.Status == model.StatusRevoked {
			revokedAt := time.Now().UTC()
			if cred.RevokedAt != nil {
				revokedAt = *cred.RevokedAt
			}
			revoked = append(
				revoked, model.RevocationEntry{
					TokenID:   cred.TokenID,
					RevokedAt: revokedAt,
					Reason:    cred.RevokeReason,
				},
			)
		}
	}
	subjects = slices2.Unique(subjects)
	if m.dryRun {
		log.WithFields(
			log.Fields{
				"credentials": len(creds),
				"revoked":     len(revoked),
				"holders":     len(subjects),
			},
		).Info("dry run, nothing written")
		return nil
	}
	inserted, skipped, err := m.warehouse.CredentialStorage().IngestBatch(creds)
	if err != nil {
		return err
	}
	if err = m.warehouse.RevocationStorage().Restore(revoked); err != nil {
		return err
	}
	// Legacy stores did not keep a holder table, so every referenced subject
	// gets a record; explicitly migrated holders already exist and keep
	// their display names.
	for _, subject := range subjects {
		if _, _, err = m.warehouse.HolderStorage().Register(model.AddHolder{Subject: subject}); err != nil {
			return err
		}
	}
	log.WithFields(
		log.Fields{
			"inserted": inserted,
			"skipped":  skipped,
			"revoked":  len(revoked),
		},
	).Info("migrated credentials")
	return nil
}

func (m migration) scans(src legacySource) error {
	legacyScans, err := src.Scans()
	if err != nil {
		return err
	}
	var events []*model.ScanEvent
	for _, legacy := range legacyScans {
		if legacy.TokenID == "" {
			log.Debug("skipping scan without token id")
			continue
		}
		event := &model.ScanEvent{
			TokenID:  legacy.TokenID,
			Verified: legacy.Verified,
			DeviceID: legacy.DeviceID,
			Location: legacy.Location,
		}
		if legacy.ScannedAt != nil {
			event.ScannedAt = *legacy.ScannedAt
		}
		events = append(events, event)
	}
	if m.dryRun {
		log.WithField("scans", len(events)).Info("dry run, nothing written")
		return nil
	}
	if err = m.warehouse.ScanStorage().RecordBatch(events); err != nil {
		return err
	}
	log.WithField("scans", len(events)).Info("migrated scans")
	return nil
}

func dbCmd(args []string) int {
	fs := flag.NewFlagSet("db", flag.ExitOnError)
	var (
		srcType    = fs.String("source-type", "", "Source storage type (json or badger)")
		srcDir     = fs.String("source-dir", "", "Source data directory")
		configFile = fs.String("config", "config.yaml", "Registry config file describing the destination")
		dryRun     = fs.Bool("dry-run", false, "Read and convert without writing to the destination")
		v          = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: anmigrate db -source-type <json|badger> -source-dir <dir> [-config <config.yaml>] [-dry-run]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *v {
		log.SetLevel(log.DebugLevel)
	}
	if *srcDir == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-source-dir is required")
		fs.Usage()
		return 2
	}
	var src legacySource
	switch *srcType {
	case "badger":
		badgerSrc, err := NewBadgerStorage(*srcDir)
		if err != nil {
			log.WithError(err).Error("failed to open legacy badger storage")
			return 1
		}
		src = badgerSrc
	case "json":
		src = NewFileStorage(*srcDir)
	default:
		_, _ = fmt.Fprintln(os.Stderr, "-source-type must be 'json' or 'badger'")
		fs.Usage()
		return 2
	}
	log.WithFields(
		log.Fields{
			"source-type": *srcType,
			"source-dir":  *srcDir,
			"dry-run":     *dryRun,
		},
	).Info("migrating registry data")

	config.Load(*configFile)
	c := config.Get()
	sealer, err := vault.NewFromBase64(c.Vault.Key)
	if err != nil {
		log.WithError(err).Error("invalid vault key")
		return 1
	}
	warehouse, err := config.LoadStorage(c.Storage)
	if err != nil {
		log.WithError(err).Error("failed to load destination storage")
		return 1
	}

	m := migration{
		warehouse: warehouse,
		sealer:    sealer,
		dryRun:    *dryRun,
	}
	for _, step := range []func(legacySource) error{
		m.holders,
		m.issuers,
		m.credentials,
		m.scans,
	} {
		if err = step(src); err != nil {
			log.WithError(err).Error("db migration failed")
			return 1
		}
	}
	log.Info("db migration completed")
	return 0
}

func vaultCmd(args []string) int {
	fs := flag.NewFlagSet("vault", flag.ExitOnError)
	var (
		configFile = fs.String("config", "config.yaml", "Registry config file with the new vault key configured")
		oldKey     = fs.String("old-key", "", "The old base64 encoded vault key")
		oldKeyFile = fs.String("old-key-file", "", "Path to a file holding the old base64 encoded vault key")
		v          = fs.Bool("v", false, "Verbose logging")
	)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Usage: anmigrate vault -old-key <key> [-config <config.yaml>]\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *v {
		log.SetLevel(log.DebugLevel)
	}
	if *oldKey == "" && *oldKeyFile != "" {
		data, err := os.ReadFile(*oldKeyFile)
		if err != nil {
			log.WithError(err).Error("could not read old key file")
			return 1
		}
		*oldKey = strings.TrimSpace(string(data))
	}
	if *oldKey == "" {
		_, _ = fmt.Fprintln(os.Stderr, "-old-key or -old-key-file is required")
		fs.Usage()
		return 2
	}

	config.Load(*configFile)
	c := config.Get()
	oldVault, err := vault.NewFromBase64(*oldKey)
	if err != nil {
		log.WithError(err).Error("invalid old vault key")
		return 1
	}
	newVault, err := vault.NewFromBase64(c.Vault.Key)
	if err != nil {
		log.WithError(err).Error("invalid new vault key")
		return 1
	}
	warehouse, err := config.LoadStorage(c.Storage)
	if err != nil {
		log.WithError(err).Error("failed to load storage")
		return 1
	}

	n, err := warehouse.CredentialStorage().Reseal(oldVault.Decrypt, newVault.Encrypt)
	if err != nil {
		log.WithError(err).Error("re-seal failed")
		return 1
	}
	// Move the key check over so the server accepts the new key on startup.
	kv := warehouse.KeyValue()
	sealed, err := storage.GetVaultKeyCheck(kv)
	if err != nil {
		log.WithError(err).Error("could not read the vault key check")
		return 1
	}
	if sealed != "" {
		plain, err := oldVault.Decrypt(sealed)
		if err != nil {
			log.WithError(err).Error("could not unseal the vault key check")
			return 1
		}
		resealed, err := newVault.Encrypt(plain)
		if err != nil {
			log.WithError(err).Error("could not re-seal the vault key check")
			return 1
		}
		if err = storage.SetVaultKeyCheck(kv, resealed); err != nil {
			log.WithError(err).Error("could not update the vault key check")
			return 1
		}
	}
	log.WithField("credentials", n).Info("re-sealed stored credentials")
	return 0
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	sub := os.Args[1]
	var code int
	switch sub {
	case "db":
		code = dbCmd(os.Args[2:])
	case "vault":
		code = vaultCmd(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		code = 0
	default:
		_, _ = fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n\n", sub)
		usage()
		code = 2
	}
	os.Exit(code)
}
