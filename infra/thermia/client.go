package thermia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/heatctl/heatctl/core/device"
	"github.com/heatctl/heatctl/core/model"
	"github.com/heatctl/heatctl/infra/logger"
)

// Config holds the Thermia Online credentials and endpoints.
type Config struct {
	User     string `json:"user"`
	Password string `json:"password"`
	APIURL   string `json:"api_url"`
	AuthURL  string `json:"auth_url"`
}

// SetDefaults applies the public cloud endpoints.
func (c *Config) SetDefaults() {
	if c.APIURL == "" {
		c.APIURL = "https://online-genesis.thermia.se/api/v1"
	}
	if c.AuthURL == "" {
		c.AuthURL = "https://online-genesis.thermia.se/api/v1/jwt/login"
	}
}

// Vendor calendar function identifiers.
const (
	calFunctionEVUMode       = 1
	calFunctionHotWaterBlock = 2
	calFunctionHeatingEffect = 3
)

// Client implements device.Controller against the Thermia Online cloud API.
// A nil device binding is not an error: planning cycles no-op until a later
// connection attempt succeeds.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger

	deviceID string
}

// NewClient validates the credentials and attempts an initial connection.
// Connection failures are tolerated; missing credentials are fatal.
func NewClient(cfg Config) (*Client, error) {
	if cfg.User == "" || cfg.Password == "" {
		return nil, fmt.Errorf("thermia: %w", device.ErrMissingCredentials)
	}
	cfg.SetDefaults()
	c := &Client{cfg: cfg, log: logger.New("thermia")}
	c.ensureConnection()
	return c, nil
}

// ensureConnection authenticates and binds the first heat pump of the
// account. Errors leave the client unbound and are logged; the next call
// retries.
func (c *Client) ensureConnection() {
	if c.deviceID != "" {
		return
	}
	if c.http == nil {
		conf := oauth2.Config{Endpoint: oauth2.Endpoint{TokenURL: c.cfg.AuthURL}}
		ctx := context.Background()
		token, err := conf.PasswordCredentialsToken(ctx, c.cfg.User, c.cfg.Password)
		if err != nil {
			c.log.Errorf("authentication failed: %v", err)
			return
		}
		c.http = oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
		c.http.Timeout = 30 * time.Second
	}

	var installations []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}
	if err := c.get("/installations", &installations); err != nil {
		c.log.Errorf("list installations: %v", err)
		return
	}
	if len(installations) == 0 {
		c.log.Errorf("connect: %v", device.ErrNoDeviceFound)
		return
	}
	c.deviceID = strconv.Itoa(installations[0].ID)
	c.log.Infof("connected to heat pump %q (%s)", installations[0].Name, c.deviceID)
}

// Connected reports whether a heat pump is bound, retrying the connection
// first.
func (c *Client) Connected() bool {
	c.ensureConnection()
	return c.deviceID != ""
}

type wireSchedule struct {
	ID         int     `json:"id,omitempty"`
	FunctionID int     `json:"functionId"`
	Start      string  `json:"start"`
	End        string  `json:"end"`
	Value      float64 `json:"value,omitempty"`
}

// ListSchedules returns the device-side calendar entries.
func (c *Client) ListSchedules() ([]model.Schedule, error) {
	if c.deviceID == "" {
		return nil, device.ErrNoDeviceFound
	}
	var wire []wireSchedule
	if err := c.get("/installations/"+c.deviceID+"/calendar/schedules", &wire); err != nil {
		return nil, err
	}
	out := make([]model.Schedule, 0, len(wire))
	for _, w := range wire {
		s, err := scheduleFromWire(w)
		if err != nil {
			c.log.Warnf("skipping schedule %d: %v", w.ID, err)
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// CreateSchedule installs a calendar entry on the heat pump.
func (c *Client) CreateSchedule(s model.Schedule) (model.ScheduleRef, error) {
	if c.deviceID == "" {
		return "", device.ErrNoDeviceFound
	}
	w := wireSchedule{
		FunctionID: functionToWire(s.Function),
		Start:      s.Start.UTC().Format(time.RFC3339),
		End:        s.End.UTC().Format(time.RFC3339),
		Value:      s.Value,
	}
	var created wireSchedule
	if err := c.post("/installations/"+c.deviceID+"/calendar/schedules", w, &created); err != nil {
		return "", err
	}
	return model.ScheduleRef(strconv.Itoa(created.ID)), nil
}

// DeleteSchedule removes a calendar entry.
func (c *Client) DeleteSchedule(ref model.ScheduleRef) error {
	if c.deviceID == "" {
		return device.ErrNoDeviceFound
	}
	return c.delete("/installations/" + c.deviceID + "/calendar/schedules/" + string(ref))
}

// OutdoorTemperature reads the outdoor sensor.
func (c *Client) OutdoorTemperature() (float64, error) {
	if c.deviceID == "" {
		return 0, device.ErrNoDeviceFound
	}
	var status struct {
		OutdoorTemperature float64 `json:"outdoorTemperature"`
	}
	if err := c.get("/installations/"+c.deviceID+"/status", &status); err != nil {
		return 0, err
	}
	return status.OutdoorTemperature, nil
}

func (c *Client) get(path string, out any) error {
	return c.do(http.MethodGet, path, nil, out)
}

func (c *Client) post(path string, in, out any) error {
	return c.do(http.MethodPost, path, in, out)
}

func (c *Client) delete(path string) error {
	return c.do(http.MethodDelete, path, nil, nil)
}

func (c *Client) do(method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.cfg.APIURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, b)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func functionToWire(f model.ScheduleFunction) int {
	switch f {
	case model.FunctionEVUMode:
		return calFunctionEVUMode
	case model.FunctionHotWaterBlock:
		return calFunctionHotWaterBlock
	default:
		return calFunctionHeatingEffect
	}
}

func scheduleFromWire(w wireSchedule) (model.Schedule, error) {
	start, err := time.Parse(time.RFC3339, w.Start)
	if err != nil {
		return model.Schedule{}, fmt.Errorf("bad start time %q: %w", w.Start, err)
	}
	end, err := time.Parse(time.RFC3339, w.End)
	if err != nil {
		return model.Schedule{}, fmt.Errorf("bad end time %q: %w", w.End, err)
	}
	s := model.Schedule{
		Ref:   model.ScheduleRef(strconv.Itoa(w.ID)),
		Start: start,
		End:   end,
		Value: w.Value,
	}
	switch w.FunctionID {
	case calFunctionEVUMode:
		s.Function = model.FunctionEVUMode
	case calFunctionHotWaterBlock:
		s.Function = model.FunctionHotWaterBlock
	case calFunctionHeatingEffect:
		s.Function = model.FunctionHeatingEffect
	default:
		return model.Schedule{}, fmt.Errorf("unknown calendar function %d", w.FunctionID)
	}
	return s, nil
}
