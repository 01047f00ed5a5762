// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package schema

// LeaveRequests is the schema definition for team.leaverequest.
var LeaveRequests = Table{
	Name: "team.leaverequest",
	Cols: map[string]string{
		"id":           "id",
		"requesterid":  "requesterid",
		"teamid":       "teamid",
		"startdate":    "startdate",
		"enddate":      "enddate",
		"reason":       "reason",
		"status":       "status",
		"decidedby":    "decidedby",
		"decisionnote": "decisionnote",
		"createdat":    "createdat",
		"updatedat":    "updatedat",
	},
}
