package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/leadkeeper/internal/client/config"
	"github.com/dmitrijs2005/leadkeeper/internal/client/leads"
	"github.com/dmitrijs2005/leadkeeper/internal/client/models"
	"github.com/dmitrijs2005/leadkeeper/internal/client/payment"
	"github.com/dmitrijs2005/leadkeeper/internal/common"
	"github.com/dmitrijs2005/leadkeeper/internal/logging"
)

type fakeAuth struct {
	mu    sync.Mutex
	state models.SessionState

	regEmail, regPass string
	regProfile        models.Profile
	profile           models.Profile
	loginEmail        string
	loginPass         string
	err               error
	logoutCalled      bool
	pingErr           error
}

func (f *fakeAuth) login(u models.User, credits int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sub := models.DefaultSubscription()
	f.state = models.SessionState{User: &u, Subscription: &sub, Credits: credits}
}

func (f *fakeAuth) Register(_ context.Context, email, password string, p models.Profile) (*models.User, error) {
	f.regEmail, f.regPass, f.regProfile = email, password, p
	if f.err != nil {
		return nil, f.err
	}
	u := models.User{ID: "u-1", Email: email, Name: p.Name, Company: p.Company}
	f.login(u, 10)
	return &u, nil
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*models.User, error) {
	f.loginEmail, f.loginPass = email, password
	if f.err != nil {
		return nil, f.err
	}
	u := models.User{ID: "u-1", Email: email}
	f.login(u, 50)
	return &u, nil
}

func (f *fakeAuth) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutCalled = true
	f.state = models.SessionState{}
	return f.err
}

func (f *fakeAuth) UpdateProfile(_ context.Context, p models.Profile) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = p
	if f.err != nil {
		return nil, f.err
	}
	if f.state.User == nil {
		return nil, common.ErrNotLoggedIn
	}
	u := *f.state.User
	u.Name, u.Company = p.Name, p.Company
	f.state.User = &u
	return &u, nil
}

func (f *fakeAuth) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeAuth) setPingErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingErr = err
}

func (f *fakeAuth) State() models.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeAuth) Close(context.Context) error { return nil }

type fakeLeads struct {
	store   *leads.Store
	auth    *fakeAuth
	results []models.Lead
	queries []models.SearchQuery
	err     error
}

func (f *fakeLeads) Search(_ context.Context, q models.SearchQuery) ([]models.Lead, error) {
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	f.store.SetLeads(f.results)
	f.store.AddSearchHistory(q)
	return f.results, nil
}

func (f *fakeLeads) SaveContact(_ context.Context, l models.Lead) error {
	if f.err != nil {
		return f.err
	}
	if !f.store.SaveContact(l) {
		return common.ErrAlreadySaved
	}
	return nil
}

func (f *fakeLeads) Enrich(_ context.Context, email string) (*models.Enrichment, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Enrichment{Email: email, Verified: true, SocialProfiles: models.SocialProfiles{LinkedIn: "linkedin.com/in/x"}}, nil
}

type fakeBilling struct {
	plans    []models.PlanInfo
	packages []models.CreditPackage
	bought   []string
	changed  []string
	txns     []payment.Transaction
	err      error
}

func (f *fakeBilling) Plans() []models.PlanInfo            { return f.plans }
func (f *fakeBilling) Packages() []models.CreditPackage    { return f.packages }
func (f *fakeBilling) Transactions() []payment.Transaction { return f.txns }

func (f *fakeBilling) PurchaseCredits(_ context.Context, id string) (*models.PaymentResult, models.CreditPackage, error) {
	f.bought = append(f.bought, id)
	if f.err != nil {
		return nil, models.CreditPackage{}, f.err
	}
	return &models.PaymentResult{Success: true, TransactionID: "txn_1", Amount: 1999}, models.CreditPackage{ID: id, Credits: 1000}, nil
}

func (f *fakeBilling) ChangePlan(_ context.Context, id string) (models.Subscription, error) {
	f.changed = append(f.changed, id)
	if f.err != nil {
		return models.Subscription{}, f.err
	}
	return models.Subscription{Plan: models.Plan(id), Status: models.StatusActive}, nil
}

type fakeUploader struct {
	keys []string
	data [][]byte
	err  error
}

func (f *fakeUploader) ObjectKey(userID, name string) string {
	return "exports/" + userID + "/" + name
}

func (f *fakeUploader) Upload(_ context.Context, key string, data []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.keys = append(f.keys, key)
	f.data = append(f.data, data)
	return "s3://bucket/" + key, nil
}

type testApp struct {
	*App
	out     *bytes.Buffer
	auth    *fakeAuth
	leadSvc *fakeLeads
	billing *fakeBilling
}

func newTestApp(t *testing.T, input ...string) *testApp {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.ExportDir = t.TempDir()

	store := leads.New()
	auth := &fakeAuth{}
	ls := &fakeLeads{store: store, auth: auth}
	bs := &fakeBilling{}
	out := &bytes.Buffer{}

	a := &App{
		config:  cfg,
		log:     logging.Discard(),
		auth:    auth,
		leadSvc: ls,
		billing: bs,
		leads:   store,
		reader:  bufio.NewReader(strings.NewReader(strings.Join(input, "\n") + "\n")),
		out:     out,
		printer: newPrinter(),
	}
	return &testApp{App: a, out: out, auth: auth, leadSvc: ls, billing: bs}
}

func (ta *testApp) loggedIn(credits int) *testApp {
	ta.auth.login(models.User{ID: "u-1", Email: "ann@example.com", Name: "Ann"}, credits)
	ta.leadsOwner = "u-1"
	return ta
}

var sampleLeads = []models.Lead{
	{ID: 1, Name: "John Smith", Email: "john@acme.com", Company: "Acme", Title: "CTO", Location: "Berlin"},
	{ID: 2, Name: "Jane Doe", Email: "jane@globex.com", Company: "Globex", Title: "VP Sales", Location: "Paris"},
}
