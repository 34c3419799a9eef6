package veriaccess

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/five82/veriaccess/internal/api"
)

const (
	accessPointsPath  = "/access/access-points/"
	accessZonesPath   = "/access/access-zones/"
	accessLogsPath    = "/access/access-logs/"
	visitorsPath      = "/access/visitors/"
	visitorAccessPath = "/access/visitor-access/"

	defaultRecentLimit = 10
)

// Access point remote control actions.
const (
	ActionLock   = "lock"
	ActionUnlock = "unlock"
)

// AccessPoints lists all access points.
func (c *Client) AccessPoints(ctx context.Context) ([]AccessPoint, error) {
	return list[AccessPoint](ctx, c, accessPointsPath, nil)
}

// AccessPoint fetches one access point.
func (c *Client) AccessPoint(ctx context.Context, id int64) (*AccessPoint, error) {
	var out AccessPoint
	if err := c.get(ctx, resourcePath(accessPointsPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateAccessPoint registers a new access point.
func (c *Client) CreateAccessPoint(ctx context.Context, point AccessPoint) (*AccessPoint, error) {
	var out AccessPoint
	if err := c.post(ctx, accessPointsPath, point, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateAccessPoint patches an access point.
func (c *Client) UpdateAccessPoint(ctx context.Context, id int64, fields Fields) (*AccessPoint, error) {
	var out AccessPoint
	if err := c.patch(ctx, resourcePath(accessPointsPath, id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteAccessPoint removes an access point.
func (c *Client) DeleteAccessPoint(ctx context.Context, id int64) error {
	return c.delete(ctx, resourcePath(accessPointsPath, id))
}

// RemoteControl locks or unlocks an access point.
func (c *Client) RemoteControl(ctx context.Context, id int64, action string) (string, error) {
	if action != ActionLock && action != ActionUnlock {
		return "", fmt.Errorf("remote control: unknown action %q", action)
	}
	var out Detail
	body := map[string]string{"action": action}
	if err := c.post(ctx, actionPath(accessPointsPath, id, "remote_control"), body, &out); err != nil {
		return "", err
	}
	c.log.WithField("access_point", id).WithField("action", action).Info("remote control sent")
	return out.Detail, nil
}

// AccessZones lists all zones.
func (c *Client) AccessZones(ctx context.Context) ([]AccessZone, error) {
	return list[AccessZone](ctx, c, accessZonesPath, nil)
}

// AccessLogs lists passages. query carries the backend's filters.
func (c *Client) AccessLogs(ctx context.Context, query url.Values) ([]AccessLog, error) {
	return list[AccessLog](ctx, c, accessLogsPath, query)
}

// RecentAccessLogs returns the latest passages. A limit below 1 means 10.
func (c *Client) RecentAccessLogs(ctx context.Context, limit int) ([]AccessLog, error) {
	if limit < 1 {
		limit = defaultRecentLimit
	}
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	return list[AccessLog](ctx, c, accessLogsPath+"recent/", query)
}

// Visitors lists visitors. A backend failure on this listing degrades to an
// empty list when the client's fallback rule is enabled.
func (c *Client) Visitors(ctx context.Context) ([]Visitor, error) {
	return list[Visitor](ctx, c, visitorsPath, nil)
}

// Photo is an image attached to a new visitor.
type Photo struct {
	Filename    string
	ContentType string
	Data        []byte
}

// NewVisitor is the create body. Status defaults to pending.
type NewVisitor struct {
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	IDNumber        string `json:"id_number"`
	Phone           string `json:"phone,omitempty"`
	Email           string `json:"email,omitempty"`
	Company         string `json:"company,omitempty"`
	VisitorType     string `json:"visitor_type,omitempty"`
	ApartmentNumber string `json:"apartment_number,omitempty"`
	EntryDate       string `json:"entry_date,omitempty"`
	ExitDate        string `json:"exit_date,omitempty"`
	Status          string `json:"status"`

	Photo *Photo `json:"-"`
}

func (v NewVisitor) form() *api.Multipart {
	form := &api.Multipart{}
	add := func(name, value string) {
		if value != "" {
			form.Add(name, value)
		}
	}
	add("first_name", v.FirstName)
	add("last_name", v.LastName)
	add("id_number", v.IDNumber)
	add("phone", v.Phone)
	add("email", v.Email)
	add("company", v.Company)
	add("visitor_type", v.VisitorType)
	add("apartment_number", v.ApartmentNumber)
	add("entry_date", v.EntryDate)
	add("exit_date", v.ExitDate)
	add("status", v.Status)
	if v.Photo != nil {
		form.AddFile("photo", v.Photo.Filename, v.Photo.ContentType, v.Photo.Data)
	}
	return form
}

// CreateVisitor registers a visitor. With a photo attached the body is sent
// as multipart form data, otherwise as JSON.
func (c *Client) CreateVisitor(ctx context.Context, visitor NewVisitor) (*Visitor, error) {
	if visitor.Status == "" {
		visitor.Status = VisitorPending
	}
	var body any = visitor
	if visitor.Photo != nil {
		body = visitor.form()
	}
	var out Visitor
	if err := c.post(ctx, visitorsPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVisitor patches a visitor.
func (c *Client) UpdateVisitor(ctx context.Context, id int64, fields Fields) (*Visitor, error) {
	var out Visitor
	if err := c.patch(ctx, resourcePath(visitorsPath, id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVisitorStatus sets a visitor's status through the dedicated action,
// falling back to a plain patch when the backend does not expose it.
func (c *Client) UpdateVisitorStatus(ctx context.Context, id int64, status string) (*Visitor, error) {
	body := map[string]string{"status": status}
	var out Visitor
	err := c.patch(ctx, actionPath(visitorsPath, id, "update_status"), body, &out)
	if err == nil {
		return &out, nil
	}
	var respErr *api.ResponseError
	if !errors.As(err, &respErr) ||
		(respErr.StatusCode != http.StatusNotFound && respErr.StatusCode != http.StatusMethodNotAllowed) {
		return nil, err
	}
	c.log.WithField("visitor", id).Debug("update_status unavailable, patching visitor")
	return c.UpdateVisitor(ctx, id, Fields{"status": status})
}

// DeleteVisitor removes a visitor.
func (c *Client) DeleteVisitor(ctx context.Context, id int64) error {
	return c.delete(ctx, resourcePath(visitorsPath, id))
}

// OccupancyStats returns the occupancy summary.
func (c *Client) OccupancyStats(ctx context.Context) (*OccupancyStats, error) {
	var out OccupancyStats
	if err := c.get(ctx, "/access/stats/occupancy/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CurrentOccupancy returns the live building headcount.
func (c *Client) CurrentOccupancy(ctx context.Context) (*BuildingOccupancy, error) {
	var out BuildingOccupancy
	if err := c.get(ctx, "/access/occupancy/current/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateResidents sets the resident count.
func (c *Client) UpdateResidents(ctx context.Context, residents int) (*BuildingOccupancy, error) {
	if residents < 0 {
		return nil, fmt.Errorf("update residents: negative count %d", residents)
	}
	var out BuildingOccupancy
	body := map[string]int{"residents_count": residents}
	if err := c.post(ctx, "/access/occupancy/update_residents/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NewVisitorAccess is the pass creation body.
type NewVisitorAccess struct {
	Visitor     int64   `json:"visitor"`
	Purpose     string  `json:"purpose,omitempty"`
	ValidFrom   string  `json:"valid_from,omitempty"`
	ValidTo     string  `json:"valid_to,omitempty"`
	AccessZones []int64 `json:"access_zones,omitempty"`
}

// CreateVisitorAccess issues a pass for a visitor.
func (c *Client) CreateVisitorAccess(ctx context.Context, pass NewVisitorAccess) (*VisitorAccess, error) {
	var out VisitorAccess
	if err := c.post(ctx, visitorAccessPath, pass, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QRCode fetches the rendered QR image of a pass.
func (c *Client) QRCode(ctx context.Context, passID int64) (*QRImage, error) {
	var out QRImage
	if err := c.get(ctx, actionPath(visitorAccessPath, passID, "qr_image"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateQR asks the backend whether a scanned code opens accessPointID.
func (c *Client) ValidateQR(ctx context.Context, code string, accessPointID int64) (*QRValidation, error) {
	body := struct {
		QRCode        string `json:"qr_code"`
		AccessPointID int64  `json:"access_point_id"`
	}{code, accessPointID}
	var out QRValidation
	if err := c.post(ctx, visitorAccessPath+"validate_qr/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
