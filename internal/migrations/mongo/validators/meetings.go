package validators

import "go.mongodb.org/mongo-driver/bson"

var ClientMeetingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"lawyer_id",
			"client_id",
			"booking_link_id",
			"scheduled_at",
			"duration_minutes",
			"ends_at",
			"meeting_type",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":             bson.M{"bsonType": "string", "minLength": 1},
			"lawyer_id":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
			"client_id":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
			"case_id":         bson.M{"bsonType": "string", "maxLength": 64},
			"booking_link_id": bson.M{"bsonType": "string", "minLength": 1},

			"scheduled_at": bson.M{"bsonType": "date"},
			"ends_at":      bson.M{"bsonType": "date"},
			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  1,
			},

			"meeting_type": bson.M{
				"bsonType": "string",
				"enum":     []string{"in_person", "remote"},
			},

			"location": bson.M{"bsonType": "string", "maxLength": 200},
			"notes":    bson.M{"bsonType": "string", "maxLength": 2000},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"completed",
					"cancelled_by_client",
					"cancelled_by_lawyer",
					"no_show",
				},
			},

			"cancellation_reason": bson.M{"bsonType": "string", "maxLength": 1000},
			"outcome_note":        bson.M{"bsonType": "string", "maxLength": 5000},
			"created_at":          bson.M{"bsonType": "date"},
			"updated_at":          bson.M{"bsonType": "date"},
		},
	},
}

var InternalMeetingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"title",
			"scheduled_at",
			"duration_minutes",
			"ends_at",
			"created_by",
			"participants",
			"summary_permission",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id":   bson.M{"bsonType": "string", "minLength": 1},
			"title": bson.M{"bsonType": "string", "minLength": 2, "maxLength": 200},

			"scheduled_at": bson.M{"bsonType": "date"},
			"ends_at":      bson.M{"bsonType": "date"},
			"duration_minutes": bson.M{
				"bsonType": []string{"int", "long"},
				"minimum":  5,
				"maximum":  720,
			},

			"created_by": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},

			"participants": bson.M{
				"bsonType":    "array",
				"minItems":    1,
				"maxItems":    100,
				"uniqueItems": true,
				"items":       bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
			},

			"join_button_minutes_before": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0, "maximum": 240},
			"join_button_minutes_after":  bson.M{"bsonType": []string{"int", "long"}, "minimum": 0, "maximum": 240},

			"summary_permission": bson.M{
				"bsonType": "string",
				"enum":     []string{"creator_only", "all_attendees"},
			},

			"summary": bson.M{
				"bsonType": "object",
				"required": []string{"text", "written_by", "written_at"},
			},

			"status": bson.M{
				"bsonType": "string",
				"enum":     []string{"scheduled", "in_progress", "completed", "cancelled"},
			},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}

var ReservationLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at", "created_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string", "minLength": 1},
			"owner":      bson.M{"bsonType": "string", "minLength": 1},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
