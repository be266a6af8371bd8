package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ProductsAPI/pkg/kit"
)

const maxBodyBytes = 1 << 20

type Server struct {
	Store    Store
	Log      *zap.Logger
	Validate *validator.Validate
}

func NewServer(store Store, log *zap.Logger) *Server {
	return &Server{
		Store:    store,
		Log:      log,
		Validate: validator.New(),
	}
}

// productRequest is the create/update body. Rating, stock, discount, thumbnail
// and images are not writable through this surface.
type productRequest struct {
	Title       string  `json:"title" validate:"required"`
	Description *string `json:"description" validate:"omitempty,max=100"`
	Price       float64 `json:"price" validate:"gt=0"`
	Brand       *string `json:"brand"`
	Category    *string `json:"category"`
}

func (s *Server) HandleList(w http.ResponseWriter, r *http.Request) {
	items, err := s.Store.GetAll(r.Context())
	if err != nil {
		s.Log.Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	kit.WriteJSON(w, http.StatusOK, Search(items, paramsFromQuery(r)))
}

func (s *Server) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Store.GetByID(r.Context(), id)
	if err != nil {
		s.Log.Error("get product failed", zap.Error(err), zap.Int("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	kit.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) HandleCreate(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeProduct(w, r)
	if !ok {
		return
	}

	dup, err := s.Store.ExistsDuplicate(r.Context(), req.Title, strOrEmpty(req.Brand), 0)
	if err != nil {
		s.Log.Error("duplicate check failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if dup {
		kit.WriteError(w, r, http.StatusConflict, "duplicate product",
			map[string]any{"title": req.Title, "brand": strOrEmpty(req.Brand)})
		return
	}

	p := Product{
		Title:       strings.TrimSpace(req.Title),
		Description: trimOpt(req.Description),
		Price:       req.Price,
		Brand:       trimOpt(req.Brand),
		Category:    trimOpt(req.Category),
	}

	if err := s.Store.Add(r.Context(), &p); err != nil {
		s.Log.Error("add product failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/products/%d", p.ID))
	kit.WriteJSON(w, http.StatusCreated, p)
}

func (s *Server) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	req, ok := s.decodeProduct(w, r)
	if !ok {
		return
	}

	existing, found, err := s.Store.GetByID(r.Context(), id)
	if err != nil {
		s.Log.Error("get product failed", zap.Error(err), zap.Int("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	dup, err := s.Store.ExistsDuplicate(r.Context(), req.Title, strOrEmpty(req.Brand), id)
	if err != nil {
		s.Log.Error("duplicate check failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if dup {
		kit.WriteError(w, r, http.StatusConflict, "duplicate product",
			map[string]any{"title": req.Title, "brand": strOrEmpty(req.Brand)})
		return
	}

	// identity-preserving replace: fields outside the request body carry over
	existing.Title = strings.TrimSpace(req.Title)
	existing.Description = trimOpt(req.Description)
	existing.Price = req.Price
	existing.Brand = trimOpt(req.Brand)
	existing.Category = trimOpt(req.Category)

	updated, err := s.Store.Update(r.Context(), id, existing)
	if err != nil {
		s.Log.Error("update product failed", zap.Error(err), zap.Int("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !updated {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	kit.WriteJSON(w, http.StatusOK, existing)
}

func (s *Server) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	deleted, err := s.Store.Delete(r.Context(), id)
	if err != nil {
		s.Log.Error("delete product failed", zap.Error(err), zap.Int("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	if !deleted {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeProduct(w http.ResponseWriter, r *http.Request) (productRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req productRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			kit.WriteError(w, r, http.StatusBadRequest, "missing body", nil)
			return req, false
		}
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return req, false
	}

	if err := s.Validate.Struct(req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", validationDetails(err))
		return req, false
	}

	return req, true
}

func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"request": err.Error()}
	}

	details := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Field() {
		case "Title":
			details["title"] = "Title is required."
		case "Description":
			details["description"] = "Description must be 100 characters or fewer."
		case "Price":
			details["price"] = "Price must be greater than 0."
		default:
			details[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return details
}

func parseID(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "id")

	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "id must be a positive integer",
			map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

// paramsFromQuery normalizes the query string into QueryParams. Values that do
// not parse are treated as absent rather than rejected.
func paramsFromQuery(r *http.Request) QueryParams {
	q := r.URL.Query()

	return QueryParams{
		Q:        q.Get("q"),
		Title:    q.Get("title"),
		Brand:    q.Get("brand"),
		Category: q.Get("category"),

		MinPrice:  optFloat(q.Get("minPrice")),
		MaxPrice:  optFloat(q.Get("maxPrice")),
		MinRating: optFloat(q.Get("minRating")),
		InStock:   optBool(q.Get("inStock")),

		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),

		Page:     optInt(q.Get("page")),
		PageSize: optInt(q.Get("pageSize")),
	}
}

func optFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func optInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func optBool(s string) *bool {
	if s == "" {
		return nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &b
}

func trimOpt(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
