package validators

import "go.mongodb.org/mongo-driver/bson"

const clockPattern = `^(([01][0-9]|2[0-3]):[0-5][0-9]|24:00)$`

var timeSlotSchema = bson.M{
	"bsonType": "object",
	"required": []string{"start", "end"},
	"properties": bson.M{
		"start": bson.M{"bsonType": "string", "pattern": clockPattern},
		"end":   bson.M{"bsonType": "string", "pattern": clockPattern},
	},
}

var daySchema = bson.M{
	"bsonType": "object",
	"required": []string{"enabled", "slots"},
	"properties": bson.M{
		"enabled": bson.M{"bsonType": "bool"},
		"slots": bson.M{
			"bsonType": "array",
			"maxItems": 48,
			"items":    timeSlotSchema,
		},
	},
}

var AvailabilityValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"_id",
			"time_zone",
			"weekly",
			"policy",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"time_zone": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"weekly": bson.M{
				"bsonType": "object",
				"required": []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"},
				"properties": bson.M{
					"monday":    daySchema,
					"tuesday":   daySchema,
					"wednesday": daySchema,
					"thursday":  daySchema,
					"friday":    daySchema,
					"saturday":  daySchema,
					"sunday":    daySchema,
				},
			},

			"policy": bson.M{
				"bsonType": "object",
				"required": []string{"buffer_minutes", "min_booking_hours", "max_booking_days", "allowed_durations"},
				"properties": bson.M{
					"buffer_minutes":    bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
					"min_booking_hours": bson.M{"bsonType": []string{"int", "long"}, "minimum": 0},
					"max_booking_days":  bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
					"allowed_durations": bson.M{
						"bsonType": "array",
						"items":    bson.M{"bsonType": []string{"int", "long"}, "minimum": 1},
					},
					"default_location": bson.M{"bsonType": "string", "maxLength": 200},
					"auto_confirm":     bson.M{"bsonType": "bool"},
					"buffer_placement": bson.M{"bsonType": "string", "enum": []string{"both", "after"}},
				},
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var ExceptionValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"lawyer_id",
			"date",
			"is_blocked",
			"created_at",
			"updated_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"lawyer_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"date": bson.M{
				"bsonType": "string",
				"pattern":  `^\d{4}-\d{2}-\d{2}$`,
			},

			"is_blocked": bson.M{
				"bsonType": "bool",
			},

			"custom_slots": bson.M{
				"bsonType": "array",
				"maxItems": 48,
				"items":    timeSlotSchema,
			},

			"reason": bson.M{
				"bsonType":  "string",
				"maxLength": 200,
			},

			"created_at": bson.M{"bsonType": "date"},
			"updated_at": bson.M{"bsonType": "date"},
		},
	},
}
