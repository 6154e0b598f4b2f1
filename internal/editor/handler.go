package editor

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/elitepdf/invoicegen/internal/compose"
	"github.com/elitepdf/invoicegen/internal/invoice"
	"github.com/elitepdf/invoicegen/internal/render"
	"github.com/elitepdf/invoicegen/internal/shared"
	"github.com/elitepdf/invoicegen/internal/view"
)

// maxLogoBytes caps uploaded logo size.
const maxLogoBytes = 5 << 20

const dateInputLayout = "2006-01-02"

// Config carries the editor's fixed policy values.
type Config struct {
	Seed           Seed
	Title          string
	CurrencySymbol string
	Page           render.PageConfig
}

// Handler serves the interactive invoice editor: a session-backed form
// that edits one draft invoice and downloads the rendered PDF.
type Handler struct {
	logger    *slog.Logger
	templates *view.Engine
	csrf      *shared.CSRFManager
	renderer  render.Renderer
	validate  *validator.Validate
	cfg       Config
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, templates *view.Engine, csrf *shared.CSRFManager, renderer render.Renderer, cfg Config) *Handler {
	if cfg.CurrencySymbol == "" {
		cfg.CurrencySymbol = compose.DefaultCurrencySymbol
	}
	return &Handler{
		logger:    logger,
		templates: templates,
		csrf:      csrf,
		renderer:  renderer,
		validate:  validator.New(),
		cfg:       cfg,
	}
}

// MountRoutes registers editor routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.showEditor)
	r.Post("/invoice", h.updateDetails)
	r.Post("/items", h.addItem)
	r.Post("/items/{index}", h.updateItem)
	r.Post("/items/{index}/delete", h.removeItem)
	r.Post("/generate", h.generate)
	r.Post("/reset", h.reset)
}

type formErrors map[string]string

type detailsForm struct {
	Number     string `validate:"required"`
	IssueDate  string `validate:"required,datetime=2006-01-02"`
	DueDate    string `validate:"omitempty,datetime=2006-01-02"`
	SellerName string `validate:"required"`
	BuyerName  string `validate:"required"`
}

func (h *Handler) showEditor(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	h.renderEditor(w, r, d, nil, http.StatusOK)
}

func (h *Handler) updateDetails(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	d, ok := h.draft(w, r)
	if !ok {
		return
	}

	form := detailsForm{
		Number:     strings.TrimSpace(r.PostFormValue("number")),
		IssueDate:  r.PostFormValue("issue_date"),
		DueDate:    r.PostFormValue("due_date"),
		SellerName: strings.TrimSpace(r.PostFormValue("seller_name")),
		BuyerName:  strings.TrimSpace(r.PostFormValue("buyer_name")),
	}
	if err := h.validate.Struct(form); err != nil {
		h.renderEditor(w, r, d, validationMessages(err), http.StatusBadRequest)
		return
	}

	d.Meta.Number = form.Number
	d.Meta.IssueDate, _ = time.Parse(dateInputLayout, form.IssueDate)
	d.Meta.DueDate = time.Time{}
	if form.DueDate != "" {
		d.Meta.DueDate, _ = time.Parse(dateInputLayout, form.DueDate)
	}

	d.Seller = invoice.PartyInfo{
		Name:         form.SellerName,
		AddressLines: splitAddress(r.PostFormValue("seller_address")),
		TaxID:        strings.TrimSpace(r.PostFormValue("seller_tax_id")),
		Contact:      strings.TrimSpace(r.PostFormValue("seller_contact")),
	}
	d.Buyer = invoice.PartyInfo{
		Name:         form.BuyerName,
		AddressLines: splitAddress(r.PostFormValue("buyer_address")),
		TaxID:        strings.TrimSpace(r.PostFormValue("buyer_tax_id")),
		Contact:      strings.TrimSpace(r.PostFormValue("buyer_contact")),
	}

	bank := invoice.BankDetails{
		AccountName:   strings.TrimSpace(r.PostFormValue("bank_account_name")),
		AccountNumber: strings.TrimSpace(r.PostFormValue("bank_account_number")),
		BankName:      strings.TrimSpace(r.PostFormValue("bank_name")),
		IFSC:          strings.TrimSpace(r.PostFormValue("bank_ifsc")),
	}
	d.Bank = nil
	if bank.HasData() {
		d.Bank = &bank
	}

	h.saveAndRedirect(w, r, d, "details saved")
}

func (h *Handler) addItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	d, ok := h.draft(w, r)
	if !ok {
		return
	}

	quantity, rate, errs := parseItemFields(r)
	if len(errs) > 0 {
		h.renderEditor(w, r, d, errs, http.StatusBadRequest)
		return
	}

	inv, err := buildInvoice(d)
	if err != nil {
		h.fail(w, r, "rebuild draft", err)
		return
	}
	if _, err := inv.AddItem(r.PostFormValue("description"), quantity, rate); err != nil {
		h.renderEditor(w, r, d, formErrors{"item": err.Error()}, http.StatusBadRequest)
		return
	}

	d.Items = inv.Items()
	h.saveAndRedirect(w, r, d, "item added")
}

func (h *Handler) updateItem(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid item index", http.StatusBadRequest)
		return
	}

	quantity, rate, errs := parseItemFields(r)
	if len(errs) > 0 {
		h.renderEditor(w, r, d, errs, http.StatusBadRequest)
		return
	}
	description := strings.TrimSpace(r.PostFormValue("description"))

	inv, err := buildInvoice(d)
	if err != nil {
		h.fail(w, r, "rebuild draft", err)
		return
	}
	err = inv.UpdateItem(index, invoice.ItemPatch{
		Description: &description,
		Quantity:    &quantity,
		UnitRate:    &rate,
	})
	switch {
	case errors.Is(err, invoice.ErrIndexOutOfRange):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, invoice.ErrValidation):
		h.renderEditor(w, r, d, formErrors{"item": err.Error()}, http.StatusBadRequest)
		return
	case err != nil:
		h.fail(w, r, "update item", err)
		return
	}

	d.Items = inv.Items()
	h.saveAndRedirect(w, r, d, "item updated")
}

func (h *Handler) removeItem(w http.ResponseWriter, r *http.Request) {
	d, ok := h.draft(w, r)
	if !ok {
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "invalid item index", http.StatusBadRequest)
		return
	}

	inv, err := buildInvoice(d)
	if err != nil {
		h.fail(w, r, "rebuild draft", err)
		return
	}
	if err := inv.RemoveItem(index); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	d.Items = inv.Items()
	h.saveAndRedirect(w, r, d, "item removed")
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxLogoBytes); err != nil {
		http.Error(w, "form too large", http.StatusRequestEntityTooLarge)
		return
	}
	d, ok := h.draft(w, r)
	if !ok {
		return
	}

	d.ShowBank = r.PostFormValue("show_bank") == "1"

	opts := compose.Options{
		Title:           h.cfg.Title,
		CurrencySymbol:  h.cfg.CurrencySymbol,
		ShowBankDetails: d.ShowBank,
	}
	if file, header, err := r.FormFile("logo"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxLogoBytes))
		if err != nil {
			h.fail(w, r, "read logo", err)
			return
		}
		opts.Logo = data
		opts.LogoFormat = logoFormat(header.Filename)
	}

	inv, err := buildInvoice(d)
	if err != nil {
		h.fail(w, r, "rebuild draft", err)
		return
	}

	blocks, err := compose.Compose(inv, opts)
	if err != nil {
		h.renderEditor(w, r, d, formErrors{"invoice": err.Error()}, http.StatusBadRequest)
		return
	}

	pdf, err := h.renderer.Render(r.Context(), blocks, h.cfg.Page)
	if err != nil {
		h.fail(w, r, "render pdf", err)
		return
	}

	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		if err := saveDraft(sess, d); err != nil {
			h.logger.Warn("save draft", slog.Any("error", err))
		}
	}

	filename := "Invoice_" + sanitizeFilename(inv.Meta.Number) + ".pdf"
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	_, _ = w.Write(pdf)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	clearDraft(sess)
	h.csrf.Rotate(sess)
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: "started a new invoice"})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// draft loads the session draft, writing an error response when the
// session is unavailable.
func (h *Handler) draft(w http.ResponseWriter, r *http.Request) (draftPayload, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return draftPayload{}, false
	}
	d, err := loadDraft(sess, h.cfg.Seed)
	if err != nil {
		// Broken drafts should not lock a user out of the editor.
		h.logger.Warn("corrupt draft, starting fresh", slog.Any("error", err))
		clearDraft(sess)
		d = newDraft(h.cfg.Seed)
		if err := saveDraft(sess, d); err != nil {
			h.logger.Warn("save draft", slog.Any("error", err))
		}
	}
	return d, true
}

func (h *Handler) saveAndRedirect(w http.ResponseWriter, r *http.Request, d draftPayload, message string) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}
	if err := saveDraft(sess, d); err != nil {
		h.fail(w, r, "save draft", err)
		return
	}
	sess.AddFlash(shared.FlashMessage{Kind: "success", Message: message})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action string, err error) {
	h.logger.Error(action, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

type partyView struct {
	Name    string
	Address string
	TaxID   string
	Contact string
}

type itemRow struct {
	Index       int
	SNo         int
	Description string
	Quantity    int
	Rate        string
	Amount      string
}

type editorView struct {
	Number     string
	IssueDate  time.Time
	DueDate    time.Time
	Seller     partyView
	Buyer      partyView
	Bank       invoice.BankDetails
	Items      []itemRow
	Subtotal   string
	TaxAmount  string
	Total      string
	TaxPercent string
	ShowBank   bool
	Errors     formErrors
}

func (h *Handler) renderEditor(w http.ResponseWriter, r *http.Request, d draftPayload, errs formErrors, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken := ""
	var flash *shared.FlashMessage
	if sess != nil {
		csrfToken, _ = h.csrf.EnsureToken(r.Context(), sess)
		// Drain the whole queue; only the most recent notification is shown.
		for f := sess.PopFlash(); f != nil; f = sess.PopFlash() {
			flash = f
		}
	}

	inv, err := buildInvoice(d)
	if err != nil {
		h.fail(w, r, "rebuild draft", err)
		return
	}
	totals := inv.ComputeTotals()
	symbol := h.cfg.CurrencySymbol

	vm := editorView{
		Number:     d.Meta.Number,
		IssueDate:  d.Meta.IssueDate,
		DueDate:    d.Meta.DueDate,
		Seller:     toPartyView(d.Seller),
		Buyer:      toPartyView(d.Buyer),
		Subtotal:   symbol + " " + totals.Subtotal.StringFixed(2),
		TaxAmount:  symbol + " " + totals.TaxAmount.StringFixed(2),
		Total:      symbol + " " + totals.Total.StringFixed(2),
		TaxPercent: inv.TaxRate.Mul(decimal.NewFromInt(100)).StringFixed(0),
		ShowBank:   d.ShowBank,
		Errors:     errs,
	}
	if d.Bank != nil {
		vm.Bank = *d.Bank
	}
	for i, item := range inv.Items() {
		vm.Items = append(vm.Items, itemRow{
			Index:       i,
			SNo:         i + 1,
			Description: item.Description,
			Quantity:    item.Quantity,
			Rate:        item.UnitRate.StringFixed(2),
			Amount:      symbol + " " + item.Amount().StringFixed(2),
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	data := view.TemplateData{
		Title:     "Invoice Generator",
		CSRFToken: csrfToken,
		Flash:     flash,
		Data:      vm,
	}
	if err := h.templates.Render(w, "pages/editor.html", data); err != nil {
		h.logger.Error("render editor", slog.Any("error", err))
	}
}

func toPartyView(p invoice.PartyInfo) partyView {
	return partyView{
		Name:    p.Name,
		Address: strings.Join(p.AddressLines, "\n"),
		TaxID:   p.TaxID,
		Contact: p.Contact,
	}
}

func parseItemFields(r *http.Request) (quantity int, rate decimal.Decimal, errs formErrors) {
	errs = formErrors{}
	quantity, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("quantity")))
	if err != nil {
		errs["quantity"] = "must be a whole number"
	}
	rate, err = decimal.NewFromString(strings.TrimSpace(r.PostFormValue("rate")))
	if err != nil {
		errs["rate"] = "must be a decimal amount"
	}
	if len(errs) == 0 {
		errs = nil
	}
	return quantity, rate, errs
}

func splitAddress(raw string) []string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func logoFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "JPG"
	default:
		return "PNG"
	}
}

func sanitizeFilename(number string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '-'
		}
	}, number)
}

func validationMessages(err error) formErrors {
	errs := formErrors{}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs["general"] = err.Error()
		return errs
	}
	for _, fe := range fieldErrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			errs[field] = "is required"
		case "datetime":
			errs[field] = "must be a valid date"
		default:
			errs[field] = "is invalid"
		}
	}
	return errs
}
