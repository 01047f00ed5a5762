// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package schema

// Timesheets is the schema definition for team.timesheet.
var Timesheets = Table{
	Name: "team.timesheet",
	Cols: map[string]string{
		"id":          "id",
		"userid":      "userid",
		"teamid":      "teamid",
		"weekstart":   "weekstart",
		"totalhours":  "totalhours",
		"status":      "status",
		"decidedby":   "decidedby",
		"submittedat": "submittedat",
		"createdat":   "createdat",
	},
}
