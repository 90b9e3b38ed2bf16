package validators

import "go.mongodb.org/mongo-driver/bson"

var ReminderValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"event_id",
			"recipient",
			"send_at",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"event_id": bson.M{
				"bsonType":  "string",
				"minLength": 24,
				"maxLength": 24,
			},

			"recipient": bson.M{
				"bsonType": "string",
			},

			"send_at": bson.M{
				"bsonType": "date",
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"scheduled",
					"sent",
					"failed",
				},
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}
