package validators

import "go.mongodb.org/mongo-driver/bson"

var AvailabilitySlotValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"baby_page_id",
			"owner_id",
			"start_time",
			"end_time",
			"max_guests",
			"booking_mode",
			"status",
			"current_bookings",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"baby_page_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"owner_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"start_time": bson.M{
				"bsonType": "date",
			},

			"end_time": bson.M{
				"bsonType": "date",
			},

			"max_guests": bson.M{
				"bsonType": "int",
				"minimum":  1,
				"maximum":  50,
			},

			"visit_duration_min": bson.M{
				"bsonType": "int",
				"minimum":  5,
				"maximum":  480,
			},

			"meal_available": bson.M{
				"bsonType": "bool",
			},

			"booking_mode": bson.M{
				"bsonType": "string",
				"enum": []string{
					"auto_confirm",
					"manual_approval",
				},
			},

			"minimum_lead_time_hours": bson.M{
				"bsonType": "int",
				"minimum":  0,
				"maximum":  720,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"active",
					"cancelled",
				},
			},

			"current_bookings": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
