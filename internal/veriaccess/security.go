package veriaccess

import (
	"context"
	"time"
)

const (
	incidentsPath  = "/security/incidents/"
	protocolsPath  = "/security/protocols/"
	eventsPath     = "/security/events/"
	roundsPath     = "/security/rounds/"
	executionsPath = "/security/executions/"
)

func (c *Client) Incidents(ctx context.Context) ([]Incident, error) {
	return list[Incident](ctx, c, incidentsPath, nil)
}

func (c *Client) Incident(ctx context.Context, id int64) (*Incident, error) {
	var out Incident
	if err := c.get(ctx, resourcePath(incidentsPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateIncident(ctx context.Context, incident NewIncident) (*Incident, error) {
	var out Incident
	if err := c.post(ctx, incidentsPath, incident, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateIncident(ctx context.Context, id int64, fields Fields) (*Incident, error) {
	var out Incident
	if err := c.patch(ctx, resourcePath(incidentsPath, id), fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AddIncidentComment posts a user comment on an incident.
func (c *Client) AddIncidentComment(ctx context.Context, incidentID int64, comment string) (*IncidentComment, error) {
	body := struct {
		Comment         string `json:"comment"`
		IsSystemComment bool   `json:"is_system_comment"`
	}{Comment: comment}
	var out IncidentComment
	if err := c.post(ctx, actionPath(incidentsPath, incidentID, "comments"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Protocols(ctx context.Context) ([]EmergencyProtocol, error) {
	return list[EmergencyProtocol](ctx, c, protocolsPath, nil)
}

// ActivateProtocol starts an emergency event for the given zones.
func (c *Client) ActivateProtocol(ctx context.Context, protocolID int64, zones []int64) (*EmergencyEvent, error) {
	if zones == nil {
		zones = []int64{}
	}
	body := struct {
		Protocol      int64   `json:"protocol"`
		AffectedZones []int64 `json:"affected_zones"`
	}{protocolID, zones}
	var out EmergencyEvent
	if err := c.post(ctx, eventsPath, body, &out); err != nil {
		return nil, err
	}
	c.log.WithField("protocol", protocolID).Warn("emergency protocol activated")
	return &out, nil
}

// EndEmergency closes an emergency event at endedAt.
func (c *Client) EndEmergency(ctx context.Context, eventID int64, notes string, endedAt time.Time) (*EmergencyEvent, error) {
	body := struct {
		EndedAt string `json:"ended_at"`
		Notes   string `json:"notes,omitempty"`
	}{endedAt.UTC().Format(time.RFC3339), notes}
	var out EmergencyEvent
	if err := c.patch(ctx, resourcePath(eventsPath, eventID), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Rounds(ctx context.Context) ([]SecurityRound, error) {
	return list[SecurityRound](ctx, c, roundsPath, nil)
}

// StartRound begins an execution of a security round.
func (c *Client) StartRound(ctx context.Context, roundID int64) (*RoundExecution, error) {
	var out RoundExecution
	if err := c.post(ctx, executionsPath, map[string]int64{"round": roundID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CompleteRound marks an execution finished.
func (c *Client) CompleteRound(ctx context.Context, executionID int64) (*RoundExecution, error) {
	var out RoundExecution
	if err := c.post(ctx, actionPath(executionsPath, executionID, "complete"), struct{}{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
