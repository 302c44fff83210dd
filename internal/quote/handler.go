// Package quote exposes the discount engine over HTTP.
package quote

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-discount/internal/common"
	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/obs"
	"github.com/noah-isme/toko-discount/internal/pricing"
	"github.com/noah-isme/toko-discount/internal/rules"
)

// Handler serves quote, voucher validation and rule listing endpoints.
type Handler struct {
	rules    rules.Source
	stacking bool
	logger   zerolog.Logger
	metrics  *obs.DomainMetrics
	validate *validator.Validate
	newID    func() string
}

// HandlerConfig configures the Handler dependencies.
type HandlerConfig struct {
	Rules    rules.Source
	Stacking bool
	Logger   *zerolog.Logger
	Metrics  *obs.DomainMetrics
}

// NewHandler constructs a Handler.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = cfg.Logger.With().Str("component", "quote").Logger()
	}
	return &Handler{
		rules:    cfg.Rules,
		stacking: cfg.Stacking,
		logger:   logger,
		metrics:  cfg.Metrics,
		validate: newValidator(),
		newID:    uuid.NewString,
	}
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Response is the data payload of a priced quote.
type Response struct {
	QuoteID string `json:"quoteId"`
	pricing.PricedResult
	Message string `json:"message"`
}

// VoucherResponse is the data payload of a voucher validation.
type VoucherResponse struct {
	Code    string   `json:"code"`
	Valid   bool     `json:"valid"`
	Reasons []string `json:"reasons"`
}

// Quote handles POST /api/v1/quotes.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	mode := string(h.mode())
	var body QuoteRequest
	if err := h.decode(r, &body); err != nil {
		h.metrics.Quote(mode, "bad_request")
		common.WriteError(w, err)
		return
	}
	req, err := body.toRequest()
	if err != nil {
		h.metrics.Quote(mode, "invalid_input")
		common.WriteError(w, inputError(err))
		return
	}
	engine, err := h.engine(r.Context())
	if err != nil {
		h.metrics.Quote(mode, "rules_unavailable")
		common.WriteError(w, err)
		return
	}
	result, err := engine.Calculate(req)
	if err != nil {
		h.metrics.Quote(mode, "invalid_input")
		common.WriteError(w, inputError(err))
		return
	}

	id := h.newID()
	w.Header().Set(obs.QuoteIDHeader, id)
	h.metrics.Quote(mode, "ok")
	h.logger.Debug().
		Str("quote_id", id).
		Str("final", result.Final.String()).
		Int("applied", len(result.Applied)).
		Msg("quote priced")
	common.Data(w, http.StatusOK, Response{QuoteID: id, PricedResult: result, Message: result.Message()})
}

// ValidateVoucher handles POST /api/v1/vouchers/validate.
func (h *Handler) ValidateVoucher(w http.ResponseWriter, r *http.Request) {
	var body VoucherRequest
	if err := h.decode(r, &body); err != nil {
		common.WriteError(w, err)
		return
	}
	customer, err := body.Customer.profile()
	if err != nil {
		common.WriteError(w, inputError(err))
		return
	}
	engine, err := h.engine(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	code := strings.TrimSpace(body.Code)
	verdict, err := engine.ValidateVoucher(code, toCart(body.Items), customer)
	if err != nil {
		common.WriteError(w, inputError(err))
		return
	}
	reasons := verdict.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	common.Data(w, http.StatusOK, VoucherResponse{Code: strings.ToUpper(code), Valid: verdict.Valid, Reasons: reasons})
}

// Rules handles GET /api/v1/rules.
func (h *Handler) Rules(w http.ResponseWriter, r *http.Request) {
	tables, err := h.loadTables(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{"mode": h.mode(), "tables": tables})
}

func (h *Handler) mode() pricing.Mode {
	if h.stacking {
		return pricing.ModeStacking
	}
	return pricing.ModeBestOf
}

func (h *Handler) loadTables(ctx context.Context) (discount.Tables, error) {
	if h.rules == nil {
		return discount.Tables{}, common.RulesUnavailable(errors.New("no rules source configured"))
	}
	tables, err := h.rules.Load(ctx)
	if err != nil {
		h.logger.Error().Err(err).Msg("load discount rules")
		return discount.Tables{}, common.RulesUnavailable(err)
	}
	return tables, nil
}

func (h *Handler) engine(ctx context.Context) (*pricing.Engine, error) {
	tables, err := h.loadTables(ctx)
	if err != nil {
		return nil, err
	}
	engine, err := pricing.New(tables, pricing.Options{Stacking: h.stacking, Logger: &h.logger, Recorder: h.metrics})
	if err != nil {
		h.logger.Error().Err(err).Msg("build pricing engine")
		return nil, common.RulesUnavailable(err)
	}
	return engine, nil
}

func (h *Handler) decode(r *http.Request, dst any) error {
	if err := common.DecodeJSON(r, dst); err != nil {
		return err
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return common.InvalidInput("request validation failed", err).WithDetails(fieldErrors(verrs))
		}
		return common.BadRequest("request validation failed", err)
	}
	return nil
}

// FieldError names one rejected request field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func fieldErrors(verrs validator.ValidationErrors) []FieldError {
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}
		reason := fe.Tag()
		if fe.Param() != "" {
			reason += "=" + fe.Param()
		}
		out = append(out, FieldError{Field: field, Reason: reason})
	}
	return out
}

func inputError(err error) error {
	var ie *discount.InputError
	if errors.As(err, &ie) {
		return common.InvalidInput("invalid input", err).WithDetails([]FieldError{{Field: ie.Field, Reason: ie.Reason}})
	}
	if common.IsAppError(err) {
		return err
	}
	return common.InvalidInput("invalid input", err)
}
