// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package schema

// Teams is the schema definition for team.team.
var Teams = Table{
	Name: "team.team",
	Cols: map[string]string{
		"id":        "id",
		"name":      "name",
		"slug":      "slug",
		"createdat": "createdat",
		"updatedat": "updatedat",
	},
}
