package registryapi

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/vc-anchorage/anchorage/api/apimodel"
	"github.com/vc-anchorage/anchorage/internal/geoip"
	"github.com/vc-anchorage/anchorage/storage/model"
)

// registerScans wires handlers using the ScanStore abstraction.
func registerScans(r fiber.Router, scans model.ScanStore) {
	g := r.Group("/scans")

	g.Get(
		"/", func(c *fiber.Ctx) error {
			items, err := scans.List()
			if err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(items)
		},
	)

	g.Post(
		"/", func(c *fiber.Ctx) error {
			var req model.AddScan
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			if req.TokenID == "" {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("jti is required"))
			}
			event := scanEvent(req, c.IP())
			if err := scans.Record(event); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.Status(fiber.StatusCreated).JSON(event)
		},
	)

	// Batch items are parsed one by one so that a single bad item, e.g. one
	// with a malformed timestamp, only drops that item and not the batch.
	type batchReq struct {
		Scans []json.RawMessage `json:"scans"`
	}
	g.Post(
		"/batch", func(c *fiber.Ctx) error {
			var req batchReq
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(apimodel.ErrorInvalidRequest("invalid body"))
			}
			events := make([]*model.ScanEvent, 0, len(req.Scans))
			for _, item := range req.Scans {
				var add model.AddScan
				if err := json.Unmarshal(item, &add); err != nil {
					log.WithField("item", string(item)).WithError(err).
						Warn("skipping invalid scan batch item")
					continue
				}
				if add.TokenID == "" {
					log.WithField("item", string(item)).
						Warn("skipping scan batch item without jti")
					continue
				}
				events = append(events, scanEvent(add, c.IP()))
			}
			if err := scans.RecordBatch(events); err != nil {
				return c.Status(fiber.StatusInternalServerError).JSON(apimodel.ErrorServerError(err.Error()))
			}
			return c.JSON(
				apimodel.BatchReport{
					Uploaded: len(events),
					Total:    len(req.Scans),
				},
			)
		},
	)
}

func scanEvent(add model.AddScan, ip string) *model.ScanEvent {
	event := &model.ScanEvent{
		TokenID:  add.TokenID,
		Verified: add.Verified,
		DeviceID: add.DeviceID,
		Location: geoip.Lookup(ip),
	}
	if add.ScannedAt != nil {
		event.ScannedAt = *add.ScannedAt
	}
	return event
}
