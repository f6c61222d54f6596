package validators

import "go.mongodb.org/mongo-driver/bson"

var GuestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"baby_page_id",
			"owner_id",
			"name",
			"email",
			"visit_status",
			"total_visits",
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

			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},

			"email": bson.M{
				"bsonType":  "string",
				"minLength": 3,
			},

			"visit_status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"not_booked",
					"booked",
					"visited",
				},
			},

			"last_visit_date": bson.M{
				"bsonType": "date",
			},

			"total_visits": bson.M{
				"bsonType": "int",
				"minimum":  0,
			},

			"can_book": bson.M{
				"bsonType": "bool",
			},

			"can_be_tag_along": bson.M{
				"bsonType": "bool",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
