package veriaccess

import (
	"context"
	"net/url"
	"strconv"
)

const (
	definitionsPath = "/reports/definitions/"
	generatedPath   = "/reports/generated/"
	schedulesPath   = "/reports/schedules/"
)

func (c *Client) Reports(ctx context.Context) ([]ReportDefinition, error) {
	return list[ReportDefinition](ctx, c, definitionsPath, nil)
}

func (c *Client) Report(ctx context.Context, id int64) (*ReportDefinition, error) {
	var out ReportDefinition
	if err := c.get(ctx, resourcePath(definitionsPath, id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateReport(ctx context.Context, def ReportDefinition) (*ReportDefinition, error) {
	var out ReportDefinition
	if err := c.post(ctx, definitionsPath, def, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GenerateReport renders a report definition for the given period.
func (c *Client) GenerateReport(ctx context.Context, reportID int64, params ReportParams) (*GeneratedReport, error) {
	body := struct {
		Report int64 `json:"report"`
		ReportParams
	}{reportID, params}
	var out GeneratedReport
	if err := c.post(ctx, generatedPath, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneratedReports lists rendered reports, all of them when reportID is 0.
func (c *Client) GeneratedReports(ctx context.Context, reportID int64) ([]GeneratedReport, error) {
	return list[GeneratedReport](ctx, c, generatedPath, byReport(reportID))
}

// ReportSchedules lists schedules, all of them when reportID is 0.
func (c *Client) ReportSchedules(ctx context.Context, reportID int64) ([]ReportSchedule, error) {
	return list[ReportSchedule](ctx, c, schedulesPath, byReport(reportID))
}

func (c *Client) CreateReportSchedule(ctx context.Context, schedule ReportSchedule) (*ReportSchedule, error) {
	var out ReportSchedule
	if err := c.post(ctx, schedulesPath, schedule, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func byReport(reportID int64) url.Values {
	if reportID == 0 {
		return nil
	}
	return url.Values{"report": {strconv.FormatInt(reportID, 10)}}
}
