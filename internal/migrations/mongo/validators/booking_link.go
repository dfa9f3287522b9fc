package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingLinkValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"lawyer_id",
			"client_id",
			"token",
			"notification_channel",
			"created_at",
			"expires_at",
			"is_used",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 36,
				"maxLength": 36,
			},

			"lawyer_id": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
			"client_id": bson.M{"bsonType": "string", "minLength": 1, "maxLength": 64},
			"case_id":   bson.M{"bsonType": "string", "maxLength": 64},

			"token": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"notification_channel": bson.M{
				"bsonType": "string",
				"enum":     []string{"email", "whatsapp"},
			},

			"created_at": bson.M{"bsonType": "date"},
			"expires_at": bson.M{"bsonType": "date"},
			"is_used":    bson.M{"bsonType": "bool"},
			"used_at":    bson.M{"bsonType": "date"},
			"meeting_id": bson.M{"bsonType": "string"},
		},
	},
}
