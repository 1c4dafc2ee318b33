// Package server contains controller and client logic
package server

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"sync"
	"syscall"
	"time"

	rice "github.com/GeertJohan/go.rice"
	log "github.com/sirupsen/logrus"

	"github.com/gorilla/websocket"
	"github.com/spf13/viper"
	"github.com/synacor/namesmith/catalog"
	"github.com/synacor/namesmith/name"
	"github.com/synacor/namesmith/page"
)

// WsRequestAction is a type for representing a web socket action
type WsRequestAction string

// WsRequestAction constants
const (
	WsRequestActionGenerate      WsRequestAction = "generate"
	WsRequestActionDescribe      WsRequestAction = "describe"
	WsRequestActionDescribeIndex WsRequestAction = "describeIndex"
)

// WsRequest is data that was read from a web socket connection
type WsRequest struct {
	Action    WsRequestAction `json:"action"`
	Generator string          `json:"generator"`
	Variant   string          `json:"variant"`
	Count     int             `json:"count"`
	Name      string          `json:"name"`
	Index     int             `json:"index"`
}

type safePages struct {
	pages map[string]*page.Page
	mutex sync.RWMutex
}

// Server is the main object that can be used to return an *http.ServeMux object.
type Server struct {
	staticBox    *rice.Box
	templates    map[string]*template.Template
	catalog      *catalog.Catalog
	loader       page.Loader
	debug        bool
	defaultCount int
	maxCount     int
	safePages    *safePages
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type indexTemplateValues struct {
	Categories []*catalog.Category
	Generators int
}

type generatorTemplateValues struct {
	Generator *catalog.Generator
	Category  string
	Variants  []name.Variant
	Count     int
	URL       string
}

type namesResponse struct {
	Generator string       `json:"generator"`
	Variant   name.Variant `json:"variant,omitempty"`
	Names     []string     `json:"names"`
}

type describeResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Generators int    `json:"generators"`
	Pages      int    `json:"pages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func init() {
	viper.SetDefault("default_count", name.DefaultCount)
	viper.SetDefault("max_count", 50)
}

// New returns a new *Server object
func New(templatesBox, staticBox *rice.Box, cat *catalog.Catalog, loader page.Loader) *Server {
	base := template.Must(template.New("").Parse(templatesBox.MustString("template.html")))
	s := &Server{
		staticBox: staticBox,
		catalog:   cat,
		loader:    loader,
		safePages: &safePages{
			pages: make(map[string]*page.Page),
		},

		debug:        viper.GetBool("debug"),
		defaultCount: viper.GetInt("default_count"),
		maxCount:     viper.GetInt("max_count"),
		templates: map[string]*template.Template{
			"index":     template.Must(template.Must(base.Clone()).Parse(templatesBox.MustString("index.html"))),
			"generator": template.Must(template.Must(base.Clone()).Parse(templatesBox.MustString("generator.html"))),
		},
	}

	if s.maxCount < s.defaultCount {
		s.maxCount = s.defaultCount
	}

	return s
}

// ServeMux returns a mux that can be used with the listen and server methods in net/http
func (s *Server) ServeMux() *http.ServeMux {
	m := http.NewServeMux()
	m.HandleFunc("/", s.indexHandler)
	m.HandleFunc("GET /g/{category}/{id}", s.generatorHandler)
	m.HandleFunc("GET /api/{category}/{id}/names", s.namesHandler)
	m.HandleFunc("GET /api/{category}/{id}/describe", s.describeHandler)
	m.HandleFunc("GET /healthz", s.healthHandler)
	m.HandleFunc("/ws", s.wsHandler)
	m.Handle("/static/", http.StripPrefix("/static/", http.FileServer(s.staticBox.HTTPBox())))
	m.HandleFunc("/favicon.ico", func(w http.ResponseWriter, r *http.Request) {
		file, err := s.staticBox.Open("favicon.ico")
		if err != nil {
			http.NotFound(w, r)
			return
		}
		defer file.Close()

		var modTime time.Time
		if stat, _ := file.Stat(); stat != nil {
			modTime = stat.ModTime()
		}

		http.ServeContent(w, r, "favicon.ico", modTime, file)
	})

	return m
}

// indexHandler handles requests to /
func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	values := indexTemplateValues{
		Categories: s.catalog.Categories(),
		Generators: s.catalog.Len(),
	}
	if err := s.templates["index"].Execute(w, &values); err != nil {
		log.Errorf("could not render index: %v", err)
	}
}

// generatorHandler handles requests to /g/{category}/{id}
func (s *Server) generatorHandler(w http.ResponseWriter, r *http.Request) {
	g, err := s.catalog.Find(r.PathValue("category"), r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	values := generatorTemplateValues{
		Generator: g,
		Category:  catalog.CategoryTitle(g.Category),
		Count:     s.defaultCount,
		URL:       r.URL.String(),
	}
	if g.Composite() {
		values.Variants = name.Variants
	}

	if err := s.templates["generator"].Execute(w, &values); err != nil {
		log.WithFields(log.Fields{"generator": g.Key()}).Errorf("could not render generator: %v", err)
	}
}

// namesHandler handles requests to /api/{category}/{id}/names
func (s *Server) namesHandler(w http.ResponseWriter, r *http.Request) {
	g, pool, ok := s.apiPool(w, r)
	if !ok {
		return
	}

	count := s.defaultCount
	if c := r.FormValue("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, &errorResponse{"count must be a non-negative integer"})
			return
		}
		count = s.clampCount(n)
	}

	v := name.ParseVariant(r.FormValue("variant"))
	if !g.Composite() {
		v = ""
	} else if v == "" {
		v = name.VariantMale
	}

	writeJSON(w, http.StatusOK, &namesResponse{
		Generator: g.Key(),
		Variant:   v,
		Names:     name.Generate(pool, v, count),
	})
}

// describeHandler handles requests to /api/{category}/{id}/describe
func (s *Server) describeHandler(w http.ResponseWriter, r *http.Request) {
	_, pool, ok := s.apiPool(w, r)
	if !ok {
		return
	}

	n := r.FormValue("name")
	writeJSON(w, http.StatusOK, &describeResponse{
		Name:        n,
		Description: name.Describe(pool, n, name.ParseVariant(r.FormValue("variant"))),
	})
}

// apiPool resolves the generator of an API request and loads its pool. A pool
// that fails to load is reported as nil so callers degrade to empty results.
func (s *Server) apiPool(w http.ResponseWriter, r *http.Request) (*catalog.Generator, name.Pool, bool) {
	g, err := s.catalog.Find(r.PathValue("category"), r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, &errorResponse{"generator not found"})
		return nil, nil, false
	}

	pool, err := s.loader.Load(r.Context(), g)
	if err != nil {
		log.WithFields(log.Fields{"generator": g.Key(), "client": r.RemoteAddr}).Errorf("could not load pool: %v", err)
		return g, nil, true
	}

	return g, pool, true
}

// healthHandler handles requests to /healthz
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, &healthResponse{
		Status:     "ok",
		Generators: s.catalog.Len(),
		Pages:      s.PagesCount(),
	})
}

// wsHandler handles requests to /ws
func (s *Server) wsHandler(w http.ResponseWriter, r *http.Request) {
	category := r.FormValue("category")
	id := r.FormValue("id")

	g, err := s.catalog.Find(category, id)
	if err != nil {
		log.WithFields(log.Fields{"generator": category + "/" + id, "client": r.RemoteAddr}).Warn("could not find generator for page")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("could not upgrade connection: %v", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(conn)
	p := page.New(g, client)
	client.Page = p

	s.registerPage(p)
	defer func() {
		cancel()
		s.unregisterPage(p)
		p.Close()
	}()

	go client.WritePump(s)
	go p.Load(ctx, s.loader)
	client.ReadPump(s)
}

func (s *Server) registerPage(p *page.Page) {
	s.safePages.mutex.Lock()
	s.safePages.pages[p.Token] = p
	s.safePages.mutex.Unlock()

	log.WithFields(log.Fields{"generator": p.Generator.Key(), "token": p.Token}).Info("page opened")
}

func (s *Server) unregisterPage(p *page.Page) {
	s.safePages.mutex.Lock()
	delete(s.safePages.pages, p.Token)
	s.safePages.mutex.Unlock()
}

// PagesCount returns the number of open page sessions.
func (s *Server) PagesCount() int {
	s.safePages.mutex.RLock()
	defer s.safePages.mutex.RUnlock()

	return len(s.safePages.pages)
}

func (s *Server) clampCount(n int) int {
	if n > s.maxCount {
		return s.maxCount
	}
	return n
}

// HandleWsRequest handles requests that came in from a web socket connection via Client
func (s *Server) HandleWsRequest(c *Client, r *WsRequest) {
	if s.debug {
		b, err := json.Marshal(r)
		if err != nil {
			log.Errorf("could not marshal JSON: %v", err)
		} else {
			log.WithFields(log.Fields{"client": c.RemoteAddr()}).Debugf("received message: %s", string(b))
		}
	}

	p := c.Page
	if r.Generator != p.Generator.Key() {
		log.WithFields(log.Fields{"client": c.RemoteAddr()}).Warnf("page is stale. expected %s, got %s", p.Generator.Key(), r.Generator)
		c.Send(&errorResponse{"Your page is out of sync. Please refresh your browser."})
		return
	}

	switch r.Action {
	case WsRequestActionGenerate:
		count := s.defaultCount
		if r.Count > 0 {
			count = s.clampCount(r.Count)
		}
		p.Generate(name.ParseVariant(r.Variant), count)
	case WsRequestActionDescribe:
		p.Describe(r.Name)
	case WsRequestActionDescribeIndex:
		p.DescribeIndex(r.Index)
	default:
		log.Errorf("unknown action received via ws: %s", r.Action)
	}
}

// ListenForEvents waits for a shutdown signal. SIGUSR1 logs the open pages instead.
func (s *Server) ListenForEvents(done chan bool) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1)

	for theSig := range sig {
		if theSig != syscall.SIGUSR1 {
			log.Printf("Shut down.")
			done <- true
			return
		}

		s.logPages()
	}
}

func (s *Server) logPages() {
	s.safePages.mutex.RLock()
	defer s.safePages.mutex.RUnlock()

	if len(s.safePages.pages) == 0 {
		log.Info("no open pages")
		return
	}

	tokens := make([]string, 0, len(s.safePages.pages))
	for token := range s.safePages.pages {
		tokens = append(tokens, token)
	}
	sort.Strings(tokens)
	for i, token := range tokens {
		p := s.safePages.pages[token]
		log.WithFields(log.Fields{"generator": p.Generator.Key(), "token": token, "state": p.State()}).Infof("page #%d", i+1)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("could not write JSON: %v", err)
	}
}
