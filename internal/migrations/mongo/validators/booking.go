package validators

import "go.mongodb.org/mongo-driver/bson"

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"baby_page_id",
			"availability_slot_id",
			"visitor_id",
			"visitor_name",
			"visitor_email",
			"arrival_time",
			"total_guest_count",
			"status",
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

			"availability_slot_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"visitor_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"visitor_name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"visitor_email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
			},

			"arrival_time": bson.M{
				"bsonType": "date",
			},

			"tag_alongs": bson.M{
				"bsonType": "array",
				"items": bson.M{
					"bsonType": "object",
					"required": []string{"guest_id", "name"},
					"properties": bson.M{
						"guest_id": bson.M{"bsonType": "string"},
						"name":     bson.M{"bsonType": "string"},
					},
				},
			},

			"total_guest_count": bson.M{
				"bsonType": "int",
				"minimum":  1,
			},

			"bringing_meal": bson.M{
				"bsonType": "bool",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"pending",
					"confirmed",
					"cancelled",
					"completed",
					"no_show",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
