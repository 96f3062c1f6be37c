// Package backendfake is an in-process stand-in for the shop REST backend,
// used by tests across packages. It keeps records as loose JSON objects,
// issues opaque token pairs and counts the calls it sees.
package backendfake

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"

	"clothshop/internal/domain"
)

// Collection paths as the client addresses them.
const (
	Varieties       = "/varieties/"
	Suppliers       = "/suppliers/"
	Inventory       = "/supplier/inventory"
	Returns         = "/supplier/returns"
	Sales           = "/sales/"
	Loans           = "/loans/"
	Expenses        = "/expenses/"
	ShopkeeperStock = "/shopkeeper-stock/"
)

var collections = []string{Varieties, Suppliers, Inventory, Returns, Sales, Loans, Expenses, ShopkeeperStock}

type account struct {
	password string
	user     domain.User
	tenant   domain.Tenant
}

type Server struct {
	*httptest.Server

	mu           sync.Mutex
	accounts     map[string]account
	access       map[string]domain.User
	refresh      map[string]domain.User
	records      map[string][]map[string]any
	payments     map[int64][]map[string]any
	seq          int64
	tokenSeq     int
	requests     []string
	refreshCalls int
	meCalls      int

	// Behaviour switches, set before issuing requests.
	ExpiresIn          int64
	FailRefresh        bool
	AlwaysUnauthorized bool
	TranscribeText     string
	TranscribeErr      bool
	ValidateErr        bool
	ChatReply          string
}

func New() *Server {
	s := &Server{
		accounts:       map[string]account{},
		access:         map[string]domain.User{},
		refresh:        map[string]domain.User{},
		records:        map[string][]map[string]any{},
		payments:       map[int64][]map[string]any{},
		ExpiresIn:      1800,
		TranscribeText: "sold 3 meters of lawn at 450",
		ChatReply:      "Sales are up this week.",
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

// AddAccount registers a user that can log in with email/password.
func (s *Server) AddAccount(email, password string, user domain.User, tenant domain.Tenant) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(email)] = account{password: password, user: user, tenant: tenant}
}

// IssueTokens hands out a token pair for user without a login round trip.
func (s *Server) IssueTokens(user domain.User) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issueLocked(user)
}

// ExpireAccess makes every outstanding access token answer 401.
func (s *Server) ExpireAccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = map[string]domain.User{}
}

// Seed stores records in a collection; each gets an id unless it has one.
func (s *Server) Seed(collection string, records ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		m := toMap(r)
		if id := idOf(m); id == 0 {
			s.seq++
			m["id"] = s.seq
		} else if id > s.seq {
			s.seq = id
		}
		s.records[collection] = append(s.records[collection], m)
	}
}

// Records returns a copy of a collection decoded into out (a pointer to a slice).
func (s *Server) Records(collection string, out any) error {
	s.mu.Lock()
	b, err := json.Marshal(s.records[collection])
	s.mu.Unlock()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

func (s *Server) MeCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meCalls
}

// Requests lists "METHOD /path" for every request seen, in order.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests counts requests whose "METHOD /path" starts with prefix.
func (s *Server) CountRequests(prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (s *Server) issueLocked(user domain.User) (string, string) {
	s.tokenSeq++
	access := fmt.Sprintf("access-%d", s.tokenSeq)
	refresh := fmt.Sprintf("refresh-%d", s.tokenSeq)
	s.access[access] = user
	s.refresh[refresh] = user
	return access, refresh
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", s.login)
	mux.HandleFunc("POST /auth/register", s.register)
	mux.HandleFunc("POST /auth/refresh", s.refreshToken)
	mux.HandleFunc("GET /auth/me", s.authed(s.me))

	for _, c := range collections {
		item := strings.TrimSuffix(c, "/") + "/{id}"
		list := c
		if strings.HasSuffix(c, "/") {
			list = c + "{$}"
		}
		mux.HandleFunc("GET "+list, s.authed(func(w http.ResponseWriter, r *http.Request, _ domain.User) { s.list(w, r, c) }))
		mux.HandleFunc("POST "+list, s.authed(func(w http.ResponseWriter, r *http.Request, _ domain.User) { s.create(w, r, c) }))
		mux.HandleFunc("GET "+item, s.authed(func(w http.ResponseWriter, r *http.Request, _ domain.User) { s.get(w, r, c) }))
		mux.HandleFunc("PUT "+item, s.authed(func(w http.ResponseWriter, r *http.Request, _ domain.User) { s.update(w, r, c) }))
		mux.HandleFunc("DELETE "+item, s.authed(func(w http.ResponseWriter, r *http.Request, _ domain.User) { s.remove(w, r, c) }))
	}

	mux.HandleFunc("GET /loans/{id}/payments", s.authed(s.listPayments))
	mux.HandleFunc("POST /loans/{id}/payments", s.authed(s.addPayment))
	mux.HandleFunc("POST /ai-agent/chat", s.authed(s.chat))
	mux.HandleFunc("POST /chatbot/ask", s.authed(s.chat))
	mux.HandleFunc("GET /predictions/demand", s.authed(s.demand))
	mux.HandleFunc("POST /sales/voice/transcribe", s.authed(s.transcribe))
	mux.HandleFunc("POST /sales/voice/validate", s.authed(s.validate))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user domain.User)

func (s *Server) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		s.mu.Lock()
		user, ok := s.access[token]
		always := s.AlwaysUnauthorized
		s.mu.Unlock()
		if !ok || always {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Could not validate credentials"})
			return
		}
		next(w, r, user)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in domain.Credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}
	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(in.Email)]
	if !ok || acc.password != in.Password {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Incorrect email or password"})
		return
	}
	access, refresh := s.issueLocked(acc.user)
	expires := s.ExpiresIn
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.AuthResponse{
		AccessToken: access, RefreshToken: refresh, ExpiresIn: expires, User: acc.user, Tenant: acc.tenant,
	})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in domain.Registration
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}
	s.mu.Lock()
	key := strings.ToLower(in.Email)
	if _, exists := s.accounts[key]; exists {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Email already registered"})
		return
	}
	s.seq++
	user := domain.User{ID: s.seq, Name: in.Name, Email: in.Email, Role: domain.RoleOwner}
	tenant := domain.Tenant{ID: s.seq, Name: in.BusinessName, BusinessName: in.BusinessName, Phone: in.Phone}
	s.accounts[key] = account{password: in.Password, user: user, tenant: tenant}
	access, refresh := s.issueLocked(user)
	expires := s.ExpiresIn
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, domain.AuthResponse{
		AccessToken: access, RefreshToken: refresh, ExpiresIn: expires, User: user, Tenant: tenant,
	})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RefreshToken string `json:"refresh_token"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	s.refreshCalls++
	user, ok := s.refresh[in.RefreshToken]
	if !ok || s.FailRefresh {
		s.mu.Unlock()
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid refresh token"})
		return
	}
	s.tokenSeq++
	access := fmt.Sprintf("access-%d", s.tokenSeq)
	s.access[access] = user
	expires := s.ExpiresIn
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.RefreshResponse{AccessToken: access, ExpiresIn: expires})
}

func (s *Server) me(w http.ResponseWriter, _ *http.Request, user domain.User) {
	s.mu.Lock()
	s.meCalls++
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request, c string) {
	s.mu.Lock()
	out := make([]map[string]any, 0, len(s.records[c]))
	for _, rec := range s.records[c] {
		if matches(rec, r.URL.Query()) {
			out = append(out, rec)
		}
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request, c string) {
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": []map[string]string{{"msg": "invalid body"}}})
		return
	}
	s.mu.Lock()
	s.seq++
	in["id"] = s.seq
	s.records[c] = append(s.records[c], in)
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, in)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request, c string) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records[c] {
		if idOf(rec) == id {
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, c string) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.records[c] {
		if idOf(rec) == id {
			for k, v := range in {
				rec[k] = v
			}
			rec["id"] = id
			s.records[c][i] = rec
			writeJSON(w, http.StatusOK, rec)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request, c string) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.records[c] {
		if idOf(rec) == id {
			s.records[c] = append(s.records[c][:i], s.records[c][i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Not found"})
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	s.mu.Lock()
	out := append([]map[string]any{}, s.payments[id]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) addPayment(w http.ResponseWriter, r *http.Request, _ domain.User) {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	var in map[string]any
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid json"})
		return
	}
	amount, _ := in["amount"].(float64)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records[Loans] {
		if idOf(rec) != id {
			continue
		}
		paid, _ := rec["paid_amount"].(float64)
		total, _ := rec["amount"].(float64)
		if paid+amount > total+1e-9 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "Payment exceeds outstanding balance"})
			return
		}
		rec["paid_amount"] = paid + amount
		if paid+amount >= total {
			rec["status"] = "paid"
		} else {
			rec["status"] = "partial"
		}
		s.seq++
		in["id"] = s.seq
		in["loan_id"] = id
		s.payments[id] = append(s.payments[id], in)
		writeJSON(w, http.StatusCreated, in)
		return
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Loan not found"})
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in domain.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	reply := s.ChatReply
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, domain.ChatReply{Reply: reply})
}

func (s *Server) demand(w http.ResponseWriter, r *http.Request, _ domain.User) {
	s.mu.Lock()
	var out []domain.DemandForecast
	for _, v := range s.records[Varieties] {
		out = append(out, domain.DemandForecast{
			VarietyID:        idOf(v),
			VarietyName:      fmt.Sprint(v["name"]),
			PredictedDemand:  10,
			RecommendedOrder: 4,
		})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].VarietyID < out[j].VarietyID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) transcribe(w http.ResponseWriter, r *http.Request, _ domain.User) {
	file, _, err := r.FormFile("audio")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "audio file required"})
		return
	}
	_, _ = io.Copy(io.Discard, file)
	file.Close()
	s.mu.Lock()
	text, fail := s.TranscribeText, s.TranscribeErr
	s.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusBadGateway, map[string]string{"detail": "Transcription service unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, domain.Transcript{Text: text})
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request, _ domain.User) {
	var in domain.Transcript
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.mu.Lock()
	fail := s.ValidateErr
	var first map[string]any
	if len(s.records[Varieties]) > 0 {
		first = s.records[Varieties][0]
	}
	s.mu.Unlock()
	if fail {
		writeJSON(w, http.StatusGatewayTimeout, map[string]string{"detail": "Validation timed out"})
		return
	}
	draft := domain.SaleDraft{Quantity: 3, SellingPrice: 450, PaymentStatus: domain.PaymentPaid, Valid: first != nil}
	if first != nil {
		draft.VarietyID = idOf(first)
		draft.VarietyName = fmt.Sprint(first["name"])
	} else {
		draft.Errors = []string{"variety not recognised"}
	}
	writeJSON(w, http.StatusOK, draft)
}

func matches(rec map[string]any, q map[string][]string) bool {
	for key, vals := range q {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		if key != "variety_id" && key != "supplier_id" {
			continue
		}
		if fmt.Sprint(rec[key]) != vals[0] {
			return false
		}
	}
	return true
}

func toMap(v any) map[string]any {
	b, _ := json.Marshal(v)
	m := map[string]any{}
	_ = json.Unmarshal(b, &m)
	return m
}

func idOf(m map[string]any) int64 {
	switch v := m["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
