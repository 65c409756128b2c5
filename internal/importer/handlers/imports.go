package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"sh3d-importer/internal/common/metrics"
	"sh3d-importer/internal/importer/archive"
	"sh3d-importer/internal/importer/mapper"
	"sh3d-importer/internal/importer/models"
	"sh3d-importer/internal/store/blob"
	store "sh3d-importer/internal/store/models"
	"sh3d-importer/internal/store/repository"
)

// ============================================================
// Import Handler
// ============================================================

// History: журнал импортов
type History interface {
	Create(ctx context.Context, rec *store.ImportRecord) error
	GetByID(ctx context.Context, id string) (*store.ImportRecord, error)
	List(ctx context.Context, limit int) ([]*store.ImportRecord, error)
}

type ImportHandler struct {
	history  History
	blobs    blob.Store
	metrics  *metrics.Metrics
	defaults mapper.Options
	renderer *mapper.Renderer
}

func NewImportHandler(history History, blobs blob.Store, m *metrics.Metrics, defaults mapper.Options) *ImportHandler {
	return &ImportHandler{
		history:  history,
		blobs:    blobs,
		metrics:  m,
		defaults: defaults,
		renderer: mapper.NewRenderer(),
	}
}

// Register вешает маршруты импорта на роутер
func (h *ImportHandler) Register(r fiber.Router) {
	r.Post("/imports", h.Create)
	r.Get("/imports", h.List)
	r.Get("/imports/:id", h.Get)
	r.Get("/imports/:id/scene", h.Scene)
	r.Get("/imports/:id/plan.svg", h.Plan)
	r.Get("/imports/:id/resources/*", h.Resource)
}

type importResponse struct {
	ID       string           `json:"id"`
	Counts   models.Counts    `json:"counts"`
	Warnings []models.Warning `json:"warnings"`
	Scene    *models.Scene    `json:"scene,omitempty"`
}

// Create принимает .sh3d в multipart/form-data (поле file) и импортирует его
func (h *ImportHandler) Create(c fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		log.Printf("[IMPORT] FormFile error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file required in multipart/form-data",
		})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to open file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read file"})
	}

	opts := optionsFromQuery(c, h.defaults)
	id := uuid.NewString()
	rec := &store.ImportRecord{
		ID:         id,
		Filename:   file.Filename,
		Size:       int64(len(data)),
		ArchiveKey: blob.ArchiveKey(id),
		Options:    encodeOptions(opts),
	}
	log.Printf("[IMPORT] %s: received %s (%d bytes)", id, file.Filename, len(data))

	ctx := c.Context()
	h.metrics.RecordArchive(len(data))
	if err := h.blobs.Put(ctx, rec.ArchiveKey, data); err != nil {
		log.Printf("[STORE] %s: save archive: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store archive"})
	}

	res, err := mapper.New(opts).Import(ctx, data)
	if err != nil {
		h.metrics.RecordFailure(err)
		rec.Status = store.StatusFailed
		rec.ErrorKind = string(models.KindOf(err))
		rec.ErrorMessage = err.Error()
		h.save(ctx, rec)
		return importError(c, id, err)
	}

	h.metrics.RecordSuccess(res)
	rec.Status = store.StatusDone
	rec.Counts = res.Counts
	rec.Warnings = res.Warnings
	h.save(ctx, rec)

	resp := importResponse{ID: id, Counts: res.Counts, Warnings: nonNil(res.Warnings)}
	if queryBool(c, "scene", true) {
		resp.Scene = res.Scene
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// List возвращает последние импорты
func (h *ImportHandler) List(c fiber.Ctx) error {
	records, err := h.history.List(c.Context(), queryInt(c, "limit", 50))
	if err != nil {
		log.Printf("[STORE] list imports: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to list imports"})
	}
	if records == nil {
		records = []*store.ImportRecord{}
	}
	return c.JSON(records)
}

// Get возвращает сводку импорта
func (h *ImportHandler) Get(c fiber.Ctx) error {
	rec, err := h.history.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return recordError(c, err)
	}
	return c.JSON(rec)
}

// Scene повторяет импорт из сохранённого архива и отдаёт граф сцены
func (h *ImportHandler) Scene(c fiber.Ctx) error {
	rec, res, err := h.reimport(c)
	if err != nil {
		return err
	}
	return c.JSON(importResponse{ID: rec.ID, Counts: res.Counts, Warnings: nonNil(res.Warnings), Scene: res.Scene})
}

// Plan отдаёт SVG-план уровня (?level=<id>)
func (h *ImportHandler) Plan(c fiber.Ctx) error {
	_, res, err := h.reimport(c)
	if err != nil {
		return err
	}

	svg, err := h.renderer.Render(res.Scene, c.Query("level"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

// Resource отдаёт запись архива (текстуру, модель, иконку) по пути из документа
func (h *ImportHandler) Resource(c fiber.Ctx) error {
	rec, err := h.history.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return recordError(c, err)
	}
	data, err := h.blobs.Get(c.Context(), rec.ArchiveKey)
	if err != nil {
		return blobError(c, err)
	}

	arc, err := archive.Open(c.Context(), data)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}
	res, err := arc.Resource(c.Params("*"))
	if err != nil {
		if errors.Is(err, archive.ErrMissingEntry) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "resource not found"})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", res.ContentType)
	return c.Send(res.Data)
}

// ============================================================
// Helpers
// ============================================================

// reimport загружает архив импорта и прогоняет его с сохранёнными настройками.
// При ошибке ответ уже записан в c.
func (h *ImportHandler) reimport(c fiber.Ctx) (*store.ImportRecord, *mapper.Result, error) {
	rec, err := h.history.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return nil, nil, recordError(c, err)
	}
	data, err := h.blobs.Get(c.Context(), rec.ArchiveKey)
	if err != nil {
		return nil, nil, blobError(c, err)
	}

	res, err := mapper.New(decodeOptions(rec.Options, h.defaults)).Import(c.Context(), data)
	if err != nil {
		return nil, nil, importError(c, rec.ID, err)
	}
	return rec, res, nil
}

func (h *ImportHandler) save(ctx context.Context, rec *store.ImportRecord) {
	if err := h.history.Create(ctx, rec); err != nil {
		log.Printf("[STORE] %s: save record: %v", rec.ID, err)
	}
}

func encodeOptions(opts mapper.Options) string {
	data, err := json.Marshal(opts)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func decodeOptions(raw string, defaults mapper.Options) mapper.Options {
	opts := defaults
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return defaults
	}
	return opts
}

func nonNil(warnings []models.Warning) []models.Warning {
	if warnings == nil {
		return []models.Warning{}
	}
	return warnings
}

// importError переводит фатальную ошибку импорта в HTTP-ответ
func importError(c fiber.Ctx, id string, err error) error {
	kind := models.KindOf(err)
	status := fiber.StatusInternalServerError
	switch kind {
	case models.KindArchiveCorrupt, models.KindArchiveMissingEntry, models.KindDocumentMalformed, models.KindInvariantViolation:
		status = fiber.StatusUnprocessableEntity
	case models.KindCancelled:
		status = fiber.StatusRequestTimeout
	}
	log.Printf("[IMPORT] %s: failed (%s): %v", id, kind, err)
	return c.Status(status).JSON(fiber.Map{
		"id":    id,
		"error": err.Error(),
		"kind":  kind,
	})
}

func recordError(c fiber.Ctx, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "import not found"})
	}
	log.Printf("[STORE] get import: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load import"})
}

func blobError(c fiber.Ctx, err error) error {
	if errors.Is(err, blob.ErrNotFound) {
		return c.Status(fiber.StatusGone).JSON(fiber.Map{"error": "archive no longer available"})
	}
	log.Printf("[STORE] get archive: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load archive"})
}
