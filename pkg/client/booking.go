package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"driveshare/pkg/model"
)

// ActorHeader carries the explicit actor identity on every mutating call.
const ActorHeader = "X-Actor-Id"

type BookingClient struct {
	httpClient *HttpClient
}

func NewBookingClient(baseURL string) *BookingClient {
	return &BookingClient{
		httpClient: NewHttpClient(baseURL),
	}
}

func (c *BookingClient) Create(ctx context.Context, actorID string, booking *model.Booking) (*Response, error) {
	return c.httpClient.POSTWithHeaders(ctx, "/api/v1/bookings", booking, map[string]string{ActorHeader: actorID})
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.GET(ctx, "/api/v1/bookings/id/"+url.PathEscape(id))
}

func (c *BookingClient) GetAll(ctx context.Context, limit int, offset int64) (*Response, error) {
	path := fmt.Sprintf("/api/v1/bookings?limit=%d&offset=%d", limit, offset)
	return c.httpClient.GET(ctx, path)
}

func (c *BookingClient) Update(ctx context.Context, actorID, id string, updates *model.BookingUpdate) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id)
	return c.httpClient.PATCHWithHeaders(ctx, path, updates, map[string]string{ActorHeader: actorID})
}

func (c *BookingClient) Approve(ctx context.Context, actorID, id string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/approve"
	return c.httpClient.POSTWithHeaders(ctx, path, nil, map[string]string{ActorHeader: actorID})
}

func (c *BookingClient) Reject(ctx context.Context, actorID, id string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/reject"
	return c.httpClient.POSTWithHeaders(ctx, path, nil, map[string]string{ActorHeader: actorID})
}

func (c *BookingClient) Cancel(ctx context.Context, actorID, id string) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/cancel"
	return c.httpClient.POSTWithHeaders(ctx, path, nil, map[string]string{ActorHeader: actorID})
}

func (c *BookingClient) Calendar(ctx context.Context, vehicleID string) (*Response, error) {
	path := "/api/v1/vehicles/" + url.PathEscape(vehicleID) + "/calendar"
	return c.httpClient.GET(ctx, path)
}

// FilterAvailable asks the availability resolver which of the candidate
// vehicles are free for the requested window. Used by vehicle search.
func (c *BookingClient) FilterAvailable(ctx context.Context, vehicleIDs []string, start, end time.Time) (*Response, error) {
	body := map[string]any{
		"vehicle_ids": vehicleIDs,
		"start_date":  start.Format(time.RFC3339),
		"end_date":    end.Format(time.RFC3339),
	}
	return c.httpClient.POST(ctx, "/api/v1/availability/filter", body)
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode booking wrapper: %w", err)
	}

	var booking model.Booking
	if err := json.Unmarshal(wrapper.Data, &booking); err != nil {
		return nil, fmt.Errorf("could not decode booking json: %w", err)
	}

	return &booking, nil
}

func (c *BookingClient) DecodeAvailable(resp *Response) ([]string, error) {
	var wrapper struct {
		Data struct {
			AvailableVehicleIDs []string `json:"available_vehicle_ids"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body, &wrapper); err != nil {
		return nil, fmt.Errorf("could not decode availability response: %w", err)
	}
	return wrapper.Data.AvailableVehicleIDs, nil
}
