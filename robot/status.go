package robot

// GetStatus retrieves the robot's live condition report.
func (c *Client) GetStatus() (*Status, error) {
	var resp StatusResponse
	if err := c.get("/robotStatus", &resp); err != nil {
		return nil, err
	}
	if err := checkResponse(&resp.Response); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetBinState queries the bin presence sensor at a named map point.
func (c *Client) GetBinState(pointID string) (*BinState, error) {
	var resp BinStateResponse
	if err := c.get("/binState?point="+pointID, &resp); err != nil {
		return nil, err
	}
	if err := checkResponse(&resp.Response); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetMapPoints downloads the full map point catalog.
func (c *Client) GetMapPoints() ([]MapPoint, error) {
	var resp MapPointsResponse
	if err := c.get("/mapPoints", &resp); err != nil {
		return nil, err
	}
	if err := checkResponse(&resp.Response); err != nil {
		return nil, err
	}
	return resp.Points, nil
}

// Ping checks robot connectivity and returns product/version info.
func (c *Client) Ping() (*PingResponse, error) {
	var resp PingResponse
	if err := c.get("/ping", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
