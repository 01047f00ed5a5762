// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package schema

// Accounts is the schema definition for users.account.
//
// The preferences column holds the whole per-user visual preference object
// as a single JSONB value, replaced wholesale by the debounced writer.
var Accounts = Table{
	Name: "users.account",
	Cols: map[string]string{
		"id":           "id",
		"username":     "username",
		"email":        "email",
		"passwordhash": "passwordhash",
		"displayname":  "displayname",
		"role":         "role",
		"avatarurl":    "avatarurl",
		"teamid":       "teamid",
		"preferences":  "preferences",
		"isactive":     "isactive",
		"createdat":    "createdat",
		"updatedat":    "updatedat",
		"deletedat":    "deletedat",
	},
}
