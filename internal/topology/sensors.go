package topology

import (
	"context"
	"net/url"
	"strings"
)

// Sensors returns all sensors matching the filter. Used to map a
// sensor hardware id back to its parent device when a device lookup by
// hardware id comes up empty.
func (c *Client) Sensors(ctx context.Context, filter SensorFilter) ([]Sensor, error) {
	query := url.Values{}
	if len(filter.HardwareIDs) > 0 {
		query.Set("hardwareIds", strings.Join(filter.HardwareIDs, ","))
	}

	return list[Sensor](c, ctx, "/sensors", query)
}
