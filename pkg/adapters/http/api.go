package http

import (
	_ "embed"
	"fmt"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

//go:embed openapi.yaml
var openapiYAML []byte

// rawSpec returns the embedded OpenAPI document.
func rawSpec() ([]byte, error) {
	return openapiYAML, nil
}

var (
	swaggerOnce sync.Once
	swaggerDoc  *openapi3.T
	swaggerErr  error
)

// GetSwagger returns the parsed OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		data, err := rawSpec()
		if err != nil {
			swaggerErr = err
			return
		}
		loader := openapi3.NewLoader()
		swaggerDoc, swaggerErr = loader.LoadFromData(data)
		if swaggerErr != nil {
			swaggerErr = fmt.Errorf("failed to load openapi document: %w", swaggerErr)
		}
	})
	return swaggerDoc, swaggerErr
}

// GetGraphParams defines parameters for GetGraph.
type GetGraphParams struct {
	SessionId *string `form:"session_id,omitempty" json:"session_id,omitempty"`
}

// SubscribeEventsParams defines parameters for SubscribeEvents.
type SubscribeEventsParams struct {
	SessionId *string `form:"session_id,omitempty" json:"session_id,omitempty"`
}

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// (GET /health)
	GetHealth(w http.ResponseWriter, r *http.Request)
	// (GET /info)
	GetInfo(w http.ResponseWriter, r *http.Request)
	// (GET /tree)
	GetTree(w http.ResponseWriter, r *http.Request)
	// (GET /nodes/{id})
	GetNode(w http.ResponseWriter, r *http.Request, id string)
	// (POST /advance)
	Advance(w http.ResponseWriter, r *http.Request)
	// (GET /graph)
	GetGraph(w http.ResponseWriter, r *http.Request, params GetGraphParams)
	// (GET /sessions)
	ListSessions(w http.ResponseWriter, r *http.Request)
	// (POST /sessions)
	CreateSession(w http.ResponseWriter, r *http.Request)
	// (GET /sessions/{id})
	GetSession(w http.ResponseWriter, r *http.Request, id string)
	// (DELETE /sessions/{id})
	DeleteSession(w http.ResponseWriter, r *http.Request, id string)
	// (POST /sessions/{id}/answers)
	AnswerSession(w http.ResponseWriter, r *http.Request, id string)
	// (POST /sessions/{id}/back)
	BackSession(w http.ResponseWriter, r *http.Request, id string)
	// (POST /sessions/{id}/reset)
	ResetSession(w http.ResponseWriter, r *http.Request, id string)
	// (GET /events)
	SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams)
}

// ServerInterfaceWrapper binds request parameters before calling the ServerInterface.
type ServerInterfaceWrapper struct {
	Handler          ServerInterface
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a parameter that could not be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

func (siw *ServerInterfaceWrapper) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return "", false
	}
	return id, true
}

func (siw *ServerInterfaceWrapper) querySessionID(w http.ResponseWriter, r *http.Request) (*string, bool) {
	var sessionID *string
	if err := runtime.BindQueryParameter("form", true, false, "session_id", r.URL.Query(), &sessionID); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "session_id", Err: err})
		return nil, false
	}
	return sessionID, true
}

func (siw *ServerInterfaceWrapper) withID(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if id, ok := siw.pathID(w, r); ok {
			fn(w, r, id)
		}
	}
}

// GetGraph binds the query parameters of GET /graph.
func (siw *ServerInterfaceWrapper) GetGraph(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := siw.querySessionID(w, r)
	if !ok {
		return
	}
	siw.Handler.GetGraph(w, r, GetGraphParams{SessionId: sessionID})
}

// SubscribeEvents binds the query parameters of GET /events.
func (siw *ServerInterfaceWrapper) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := siw.querySessionID(w, r)
	if !ok {
		return
	}
	siw.Handler.SubscribeEvents(w, r, SubscribeEventsParams{SessionId: sessionID})
}

// HandlerFromMux registers every operation on r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	wrapper := ServerInterfaceWrapper{
		Handler: si,
		ErrorHandlerFunc: func(w http.ResponseWriter, r *http.Request, err error) {
			writeError(w, http.StatusBadRequest, err)
		},
	}

	r.Get("/health", si.GetHealth)
	r.Get("/info", si.GetInfo)
	r.Get("/tree", si.GetTree)
	r.Get("/nodes/{id}", wrapper.withID(si.GetNode))
	r.Post("/advance", si.Advance)
	r.Get("/graph", wrapper.GetGraph)
	r.Get("/sessions", si.ListSessions)
	r.Post("/sessions", si.CreateSession)
	r.Get("/sessions/{id}", wrapper.withID(si.GetSession))
	r.Delete("/sessions/{id}", wrapper.withID(si.DeleteSession))
	r.Post("/sessions/{id}/answers", wrapper.withID(si.AnswerSession))
	r.Post("/sessions/{id}/back", wrapper.withID(si.BackSession))
	r.Post("/sessions/{id}/reset", wrapper.withID(si.ResetSession))
	r.Get("/events", wrapper.SubscribeEvents)
	return r
}
