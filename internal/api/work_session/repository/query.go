package workSessionRepository

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"WorkHoursMonitor/internal/entity"
)

var openStatuses = bson.A{entity.SessionActive, entity.SessionPaused}

func byID(sessionID string) bson.M {
	return bson.M{"_id": sessionID}
}

func openSessionOf(userID string) bson.M {
	return bson.M{
		"user_id": userID,
		"status":  bson.M{"$in": openStatuses},
	}
}

func openSessions() bson.M {
	return bson.M{"status": bson.M{"$in": openStatuses}}
}

func startedSince(userID string, since time.Time) bson.M {
	return bson.M{
		"user_id":    userID,
		"start_time": bson.M{"$gte": since},
	}
}

func startedBetween(userIDs []string, from, to time.Time) bson.M {
	return bson.M{
		"user_id":    bson.M{"$in": userIDs},
		"start_time": bson.M{"$gte": from, "$lt": to},
	}
}

func startedWithin(from, to time.Time) bson.M {
	return bson.M{"start_time": bson.M{"$gte": from, "$lt": to}}
}

func statusCountsSince(since time.Time) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"start_time": bson.M{"$gte": since}}}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}},
	}
}

func setFields(update entity.WorkSessionUpdate) bson.M {
	set := bson.M{}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.EndTime != nil {
		set["end_time"] = *update.EndTime
	}
	if update.TotalActiveTime != nil {
		set["total_active_time"] = *update.TotalActiveTime
	}
	return bson.M{"$set": set}
}

func pushLog(entry entity.DetectionLogEntry) bson.M {
	return bson.M{"$push": bson.M{"eye_detection_logs": entry}}
}
