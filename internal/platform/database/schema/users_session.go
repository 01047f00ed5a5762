// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package schema

// Sessions is the schema definition for users.session (refresh-token sessions).
var Sessions = Table{
	Name: "users.session",
	Cols: map[string]string{
		"id":        "id",
		"userid":    "userid",
		"tokenhash": "tokenhash",
		"useragent": "useragent",
		"ipaddress": "ipaddress",
		"expiresat": "expiresat",
		"isrevoked": "isrevoked",
		"createdat": "createdat",
	},
}
