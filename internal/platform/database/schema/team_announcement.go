// Copyright (c) 2026 TeamPulse. All rights reserved.
// Author: engineering@teampulse.dev

package schema

// Announcements is the schema definition for team.announcement.
var Announcements = Table{
	Name: "team.announcement",
	Cols: map[string]string{
		"id":        "id",
		"teamid":    "teamid",
		"authorid":  "authorid",
		"title":     "title",
		"message":   "message",
		"priority":  "priority",
		"expiresat": "expiresat",
		"createdat": "createdat",
	},
}

// AnnouncementReads is the schema definition for team.announcementread.
//
// One row per (announcement, user) pair. Row presence with isread=true is the
// durable read receipt; absence means unread.
var AnnouncementReads = Table{
	Name: "team.announcementread",
	Cols: map[string]string{
		"announcementid": "announcementid",
		"userid":         "userid",
		"isread":         "isread",
		"readat":         "readat",
	},
}
