package veriaccess

import (
	"context"
	"errors"
	"net/url"
)

const (
	vehiclesPath      = "/parking/vehicles/"
	parkingAreasPath  = "/parking/areas/"
	parkingLogsPath   = "/parking/logs/"
	parkingAccessPath = "/parking/access/"
)

// ErrNoSignedInUser is returned when an operation needs the cached user and
// none is stored.
var ErrNoSignedInUser = errors.New("no signed-in user, sign in again")

// Vehicles lists vehicles matching query.
func (c *Client) Vehicles(ctx context.Context, query url.Values) ([]Vehicle, error) {
	return list[Vehicle](ctx, c, vehiclesPath, query)
}

// Vehicle fetches one vehicle.
func (c *Client) Vehicle(ctx context.Context, id int64) (*Vehicle, error) {
	var out Vehicle
	if err := c.get(ctx, resourcePath(vehiclesPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateVehicle registers a vehicle, owned by the signed-in user unless
// User is set.
func (c *Client) CreateVehicle(ctx context.Context, vehicle NewVehicle) (*Vehicle, error) {
	if vehicle.User == 0 {
		user, ok := c.session.User()
		if !ok {
			return nil, ErrNoSignedInUser
		}
		vehicle.User = user.ID
	}
	var out Vehicle
	if err := c.post(ctx, vehiclesPath, vehicle, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVehicle patches a vehicle.
func (c *Client) UpdateVehicle(ctx context.Context, id int64, fields Fields) (*Vehicle, error) {
	var out Vehicle
	if err := c.patch(ctx, resourcePath(vehiclesPath, id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVehicle removes a vehicle.
func (c *Client) DeleteVehicle(ctx context.Context, id int64) error {
	return c.delete(ctx, resourcePath(vehiclesPath, id))
}

// ParkingAreas lists parking areas matching query.
func (c *Client) ParkingAreas(ctx context.Context, query url.Values) ([]ParkingArea, error) {
	return list[ParkingArea](ctx, c, parkingAreasPath, query)
}

// AvailableParkingAreas lists only active areas.
func (c *Client) AvailableParkingAreas(ctx context.Context) ([]ParkingArea, error) {
	return c.ParkingAreas(ctx, url.Values{"active_only": {"true"}})
}

// ParkingArea fetches one area.
func (c *Client) ParkingArea(ctx context.Context, id int64) (*ParkingArea, error) {
	var out ParkingArea
	if err := c.get(ctx, resourcePath(parkingAreasPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateParkingArea adds an area.
func (c *Client) CreateParkingArea(ctx context.Context, area ParkingArea) (*ParkingArea, error) {
	var out ParkingArea
	if err := c.post(ctx, parkingAreasPath, area, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateParkingArea patches an area.
func (c *Client) UpdateParkingArea(ctx context.Context, id int64, fields Fields) (*ParkingArea, error) {
	var out ParkingArea
	if err := c.patch(ctx, resourcePath(parkingAreasPath, id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteParkingArea removes an area.
func (c *Client) DeleteParkingArea(ctx context.Context, id int64) error {
	return c.delete(ctx, resourcePath(parkingAreasPath, id))
}

// ParkingStats returns capacity and occupancy across areas.
func (c *Client) ParkingStats(ctx context.Context) (*ParkingStats, error) {
	var out ParkingStats
	if err := c.get(ctx, parkingAreasPath+"stats/", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParkingLogs lists parking entries and exits.
func (c *Client) ParkingLogs(ctx context.Context, query url.Values) ([]ParkingLog, error) {
	return list[ParkingLog](ctx, c, parkingLogsPath, query)
}

// ParkingLog fetches one parking log entry.
func (c *Client) ParkingLog(ctx context.Context, id int64) (*ParkingLog, error) {
	var out ParkingLog
	if err := c.get(ctx, resourcePath(parkingLogsPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ParkingAccesses lists vehicle-to-area grants.
func (c *Client) ParkingAccesses(ctx context.Context, query url.Values) ([]ParkingAccess, error) {
	return list[ParkingAccess](ctx, c, parkingAccessPath, query)
}

// CreateParkingAccess grants a vehicle access to an area.
func (c *Client) CreateParkingAccess(ctx context.Context, grant Fields) (*ParkingAccess, error) {
	var out ParkingAccess
	if err := c.post(ctx, parkingAccessPath, grant, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteParkingAccess revokes a grant.
func (c *Client) DeleteParkingAccess(ctx context.Context, id int64) error {
	return c.delete(ctx, resourcePath(parkingAccessPath, id))
}

type vehicleMove struct {
	Vehicle     int64  `json:"vehicle"`
	ParkingArea int64  `json:"parking_area"`
	Direction   string `json:"direction,omitempty"`
}

// CheckVehicleAccess asks whether a vehicle may enter an area.
func (c *Client) CheckVehicleAccess(ctx context.Context, vehicleID, areaID int64) (bool, error) {
	var out struct {
		HasAccess bool `json:"has_access"`
	}
	if err := c.post(ctx, "/parking/check-access/", vehicleMove{Vehicle: vehicleID, ParkingArea: areaID}, &out); err != nil {
		return false, err
	}
	return out.HasAccess, nil
}

// RegisterEntry records a vehicle entering an area.
func (c *Client) RegisterEntry(ctx context.Context, vehicleID, areaID int64) (*ParkingLog, error) {
	return c.move(ctx, "/parking/register-entry/", vehicleMove{vehicleID, areaID, "in"})
}

// RegisterExit records a vehicle leaving an area.
func (c *Client) RegisterExit(ctx context.Context, vehicleID, areaID int64) (*ParkingLog, error) {
	return c.move(ctx, "/parking/register-exit/", vehicleMove{vehicleID, areaID, "out"})
}

func (c *Client) move(ctx context.Context, path string, body vehicleMove) (*ParkingLog, error) {
	var out ParkingLog
	if err := c.post(ctx, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
