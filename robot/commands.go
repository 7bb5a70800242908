package robot

import "time"

// GotoSite commands the robot to navigate to a map point.
func (c *Client) GotoSite(req *GotoSiteRequest) error {
	var resp Response
	if err := c.post("/gotoSite", req, &resp); err != nil {
		return err
	}
	return checkResponse(&resp)
}

// AlignRack fine-tunes position and orientation under a rack before lifting.
func (c *Client) AlignRack(pointID string) error {
	var resp Response
	if err := c.post("/alignRack", &AlignRackRequest{ID: pointID}, &resp); err != nil {
		return err
	}
	return checkResponse(&resp)
}

// JackUp raises the lifting mechanism to engage a carried rack or bin.
func (c *Client) JackUp() error {
	var resp Response
	if err := c.post("/jackUp", nil, &resp); err != nil {
		return err
	}
	return checkResponse(&resp)
}

// JackDown lowers the lifting mechanism to release the carried load.
func (c *Client) JackDown() error {
	var resp Response
	if err := c.post("/jackDown", nil, &resp); err != nil {
		return err
	}
	return checkResponse(&resp)
}

// Joystick issues a direct velocity command for the given duration.
func (c *Client) Joystick(vx, vy, w float64, d time.Duration) error {
	var resp Response
	req := &JoystickRequest{VX: vx, VY: vy, W: w, DurationMS: int(d.Milliseconds())}
	if err := c.post("/joystick", req, &resp); err != nil {
		return err
	}
	return checkResponse(&resp)
}

// CancelCommand asks the robot to abort the in-flight command. Best-effort:
// a command the robot already finished cannot be undone.
func (c *Client) CancelCommand() error {
	var resp Response
	if err := c.post("/cancelCmd", nil, &resp); err != nil {
		return err
	}
	return checkResponse(&resp)
}

// LatestCommandStatus reports the state of the most recently issued command.
func (c *Client) LatestCommandStatus() (*CommandStatus, error) {
	var resp CommandStatusResponse
	if err := c.get("/latestCmdStatus", &resp); err != nil {
		return nil, err
	}
	if err := checkResponse(&resp.Response); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
